package model

import (
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// TokensModel is the custom-extension interface goctl-generated code
// pairs with its *_gen.go counterpart; business logic that doesn't fit
// the generated CRUD surface lands here instead of in the generated
// file, matching the reference backend's model package split.
type TokensModel interface {
	tokensModel
}

type customTokensModel struct {
	*defaultTokensModel
}

// NewTokensModel returns the relational model for the tokens table.
func NewTokensModel(conn sqlx.SqlConn, c cache.CacheConf) TokensModel {
	return &customTokensModel{defaultTokensModel: newTokensModel(conn, c)}
}

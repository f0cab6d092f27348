package model

import (
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// CallersModel is the custom extension of the generated callers CRUD.
type CallersModel interface {
	callersModel
}

type customCallersModel struct {
	*defaultCallersModel
}

// NewCallersModel returns the relational model for the callers table.
func NewCallersModel(conn sqlx.SqlConn, c cache.CacheConf) CallersModel {
	return &customCallersModel{defaultCallersModel: newCallersModel(conn, c)}
}

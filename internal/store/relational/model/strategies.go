package model

import (
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// StrategiesModel is the custom extension of the generated strategies CRUD.
type StrategiesModel interface {
	strategiesModel
}

type customStrategiesModel struct {
	*defaultStrategiesModel
}

// NewStrategiesModel returns the relational model for the strategies table.
func NewStrategiesModel(conn sqlx.SqlConn, c cache.CacheConf) StrategiesModel {
	return &customStrategiesModel{defaultStrategiesModel: newStrategiesModel(conn, c)}
}

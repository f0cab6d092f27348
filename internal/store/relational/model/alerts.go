package model

import (
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// AlertsModel is the custom extension of the generated alerts CRUD.
type AlertsModel interface {
	alertsModel
}

type customAlertsModel struct {
	*defaultAlertsModel
}

// NewAlertsModel returns the relational model for the alerts table.
func NewAlertsModel(conn sqlx.SqlConn, c cache.CacheConf) AlertsModel {
	return &customAlertsModel{defaultAlertsModel: newAlertsModel(conn, c)}
}

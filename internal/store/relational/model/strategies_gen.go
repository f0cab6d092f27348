package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Strategy is a named, versioned simulation configuration (cost model,
// target ladder, re-entry policy) that runs are executed against.
type Strategy struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	ConfigJSON string `db:"config_json"`
	CreatedAt  int64  `db:"created_at"`
}

var strategiesFieldNames = []string{"id", "name", "config_json", "created_at"}

const strategiesTable = "strategies"

type strategiesModel interface {
	Insert(ctx context.Context, data *Strategy) (int64, error)
	FindOne(ctx context.Context, id int64) (*Strategy, error)
	FindOneByName(ctx context.Context, name string) (*Strategy, error)
}

type defaultStrategiesModel struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	table string
}

func newStrategiesModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) *defaultStrategiesModel {
	return &defaultStrategiesModel{conn: conn, cache: cache.NewCache(c, opts...), table: strategiesTable}
}

func (m *defaultStrategiesModel) Insert(ctx context.Context, data *Strategy) (int64, error) {
	query := fmt.Sprintf("insert into %s (name, config_json, created_at) values ($1,$2,$3) on conflict (name) do update set config_json = excluded.config_json returning id", m.table)
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query, data.Name, data.ConfigJSON, data.CreatedAt)
	return id, err
}

func (m *defaultStrategiesModel) FindOne(ctx context.Context, id int64) (*Strategy, error) {
	var row Strategy
	query := fmt.Sprintf("select %s from %s where id = $1", strings.Join(strategiesFieldNames, ","), m.table)
	err := m.conn.QueryRowCtx(ctx, &row, query, id)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *defaultStrategiesModel) FindOneByName(ctx context.Context, name string) (*Strategy, error) {
	var row Strategy
	query := fmt.Sprintf("select %s from %s where name = $1", strings.Join(strategiesFieldNames, ","), m.table)
	err := m.conn.QueryRowCtx(ctx, &row, query, name)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

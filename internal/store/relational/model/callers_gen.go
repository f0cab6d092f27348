package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Caller is a Telegram/Discord channel whose alerts feed the pipeline.
type Caller struct {
	ID          int64  `db:"id"`
	Platform    string `db:"platform"`
	ExternalID  string `db:"external_id"`
	DisplayName string `db:"display_name"`
	CreatedAt   int64  `db:"created_at"`
}

var callersFieldNames = []string{"id", "platform", "external_id", "display_name", "created_at"}

const callersTable = "callers"

type callersModel interface {
	Insert(ctx context.Context, data *Caller) (int64, error)
	FindOne(ctx context.Context, id int64) (*Caller, error)
	FindOneByPlatformExternalID(ctx context.Context, platform, externalID string) (*Caller, error)
}

type defaultCallersModel struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	table string
}

func newCallersModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) *defaultCallersModel {
	return &defaultCallersModel{conn: conn, cache: cache.NewCache(c, opts...), table: callersTable}
}

func (m *defaultCallersModel) Insert(ctx context.Context, data *Caller) (int64, error) {
	query := fmt.Sprintf("insert into %s (platform, external_id, display_name, created_at) values ($1,$2,$3,$4) on conflict (platform, external_id) do update set display_name = excluded.display_name returning id", m.table)
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query, data.Platform, data.ExternalID, data.DisplayName, data.CreatedAt)
	return id, err
}

func (m *defaultCallersModel) FindOne(ctx context.Context, id int64) (*Caller, error) {
	var row Caller
	query := fmt.Sprintf("select %s from %s where id = $1", strings.Join(callersFieldNames, ","), m.table)
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

func (m *defaultCallersModel) FindOneByPlatformExternalID(ctx context.Context, platform, externalID string) (*Caller, error) {
	var row Caller
	query := fmt.Sprintf("select %s from %s where platform = $1 and external_id = $2", strings.Join(callersFieldNames, ","), m.table)
	err := m.conn.QueryRowCtx(ctx, &row, query, platform, externalID)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

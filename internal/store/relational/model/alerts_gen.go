package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Alert is a single call ingested from a caller channel: an entry price,
// a stop, and a JSON-encoded target ladder (decoded/encoded by the
// caller, stored as text here the way the generated layer never
// interprets JSON payloads).
type Alert struct {
	ID          int64  `db:"id"`
	CallerID    int64  `db:"caller_id"`
	TokenID     int64  `db:"token_id"`
	ChatID      string `db:"chat_id"`
	MessageID   string `db:"message_id"`
	EntryPrice  string `db:"entry_price"`
	StopPrice   string `db:"stop_price"`
	TargetsJSON string `db:"targets_json"`
	Status      string `db:"status"`
	CreatedAt   int64  `db:"created_at"`
}

var alertsFieldNames = []string{"id", "caller_id", "token_id", "chat_id", "message_id", "entry_price", "stop_price", "targets_json", "status", "created_at"}

const alertsTable = "alerts"

type alertsModel interface {
	Insert(ctx context.Context, data *Alert) (int64, error)
	FindOne(ctx context.Context, id int64) (*Alert, error)
	FindOneByChatMessage(ctx context.Context, chatID, messageID string) (*Alert, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	ListByStatus(ctx context.Context, status string, limit int) ([]Alert, error)
}

type defaultAlertsModel struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	table string
}

func newAlertsModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) *defaultAlertsModel {
	return &defaultAlertsModel{conn: conn, cache: cache.NewCache(c, opts...), table: alertsTable}
}

// Insert relies on a (chat_id, message_id) unique constraint: re-ingesting
// the same Telegram message is a silent no-op, not a duplicate alert.
func (m *defaultAlertsModel) Insert(ctx context.Context, data *Alert) (int64, error) {
	query := fmt.Sprintf(`insert into %s (caller_id, token_id, chat_id, message_id, entry_price, stop_price, targets_json, status, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		on conflict (chat_id, message_id) do update set status = %s.status
		returning id`, m.table, m.table)
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query, data.CallerID, data.TokenID, data.ChatID, data.MessageID,
		data.EntryPrice, data.StopPrice, data.TargetsJSON, data.Status, data.CreatedAt)
	return id, err
}

func (m *defaultAlertsModel) FindOne(ctx context.Context, id int64) (*Alert, error) {
	var row Alert
	query := fmt.Sprintf("select %s from %s where id = $1", strings.Join(alertsFieldNames, ","), m.table)
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

func (m *defaultAlertsModel) FindOneByChatMessage(ctx context.Context, chatID, messageID string) (*Alert, error) {
	var row Alert
	query := fmt.Sprintf("select %s from %s where chat_id = $1 and message_id = $2", strings.Join(alertsFieldNames, ","), m.table)
	err := m.conn.QueryRowCtx(ctx, &row, query, chatID, messageID)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *defaultAlertsModel) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := fmt.Sprintf("update %s set status = $1 where id = $2", m.table)
	_, err := m.conn.ExecCtx(ctx, query, status, id)
	return err
}

func (m *defaultAlertsModel) ListByStatus(ctx context.Context, status string, limit int) ([]Alert, error) {
	var rows []Alert
	query := fmt.Sprintf("select %s from %s where status = $1 order by created_at asc limit $2", strings.Join(alertsFieldNames, ","), m.table)
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, status, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

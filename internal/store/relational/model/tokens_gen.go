package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlc"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Token is the raw row shape for the tokens table, the goctl-generated
// counterpart the reference backend's model package pairs with each
// custom*Model wrapper.
type Token struct {
	ID           int64  `db:"id"`
	Chain        string `db:"chain"`
	TokenAddress string `db:"token_address"`
	Symbol       string `db:"symbol"`
	Name         string `db:"name"`
	CreatedAt    int64  `db:"created_at"`
}

var tokensFieldNames = []string{"id", "chain", "token_address", "symbol", "name", "created_at"}

const tokensTable = "tokens"

type tokensModel interface {
	Insert(ctx context.Context, data *Token) (int64, error)
	FindOne(ctx context.Context, id int64) (*Token, error)
	FindOneByChainTokenAddress(ctx context.Context, chain, tokenAddress string) (*Token, error)
	Update(ctx context.Context, data *Token) error
	Delete(ctx context.Context, id int64) error
}

type defaultTokensModel struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	table string
}

func newTokensModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) *defaultTokensModel {
	return &defaultTokensModel{
		conn:  conn,
		cache: cache.NewCache(c, opts...),
		table: tokensTable,
	}
}

func (m *defaultTokensModel) Insert(ctx context.Context, data *Token) (int64, error) {
	query := fmt.Sprintf("insert into %s (chain, token_address, symbol, name, created_at) values ($1,$2,$3,$4,$5) on conflict (chain, token_address) do update set symbol = excluded.symbol, name = excluded.name returning id",
		m.table)
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query, data.Chain, data.TokenAddress, data.Symbol, data.Name, data.CreatedAt)
	return id, err
}

func (m *defaultTokensModel) FindOne(ctx context.Context, id int64) (*Token, error) {
	var row Token
	query := fmt.Sprintf("select %s from %s where id = $1", strings.Join(tokensFieldNames, ","), m.table)
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

func (m *defaultTokensModel) FindOneByChainTokenAddress(ctx context.Context, chain, tokenAddress string) (*Token, error) {
	var row Token
	// token_address is bound verbatim: no lower()/upper() folding, which
	// is what preserves mint-case across the relational store too.
	query := fmt.Sprintf("select %s from %s where chain = $1 and token_address = $2", strings.Join(tokensFieldNames, ","), m.table)
	err := m.conn.QueryRowCtx(ctx, &row, query, chain, tokenAddress)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *defaultTokensModel) Update(ctx context.Context, data *Token) error {
	query := fmt.Sprintf("update %s set chain = $1, token_address = $2, symbol = $3, name = $4 where id = $5", m.table)
	_, err := m.conn.ExecCtx(ctx, query, data.Chain, data.TokenAddress, data.Symbol, data.Name, data.ID)
	return err
}

func (m *defaultTokensModel) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("delete from %s where id = $1", m.table)
	_, err := m.conn.ExecCtx(ctx, query, id)
	return err
}

// ErrNotFound mirrors go-zero's sqlc.ErrNotFound, re-exported at package
// level the way goctl-generated model packages do.
var ErrNotFound = sqlc.ErrNotFound

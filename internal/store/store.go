// Package store persists accounts, subscriptions, payments, promotions,
// vehicle listings and published plan catalogs in Postgres.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/autovitrine/marketplace/pkg/pg"
)

var (
	ErrCatalogNotFound      = errors.New("store: no plan catalog published")
	ErrCatalogVersionExists = errors.New("store: plan catalog version already published")
	ErrPaymentNotFound      = errors.New("store: payment not found")
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pg.TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

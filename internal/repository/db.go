package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var ErrTxUnsupported = errors.New("repository: database handle cannot start transactions")

// withTx runs fn inside a transaction started from db. pgx.Tx also starts
// (savepoint) transactions, so nesting works.
func withTx(ctx context.Context, db DBTX, fn func(tx pgx.Tx) error) error {
	starter, ok := db.(txStarter)
	if !ok {
		return ErrTxUnsupported
	}
	tx, err := starter.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsUniqueViolation reports a Postgres 23505 error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

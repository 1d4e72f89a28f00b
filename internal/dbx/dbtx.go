// Package dbx holds the small database/sql helpers shared by the local and
// remote repositories: the DBTX handle and transaction scoping.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by repositories.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction and commits on success or rolls back on
// error/panic. Panics are rethrown.
//
// If h is already a *sql.Tx, fn joins that transaction and commit/rollback is
// left to the owner, so composite operations can call each other freely.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return pending.NewSQLiteRepository(tx).Enqueue(ctx, op)
//	})
func WithTx(ctx context.Context, h DBTX, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	switch v := h.(type) {
	case *sql.Tx:
		return fn(ctx, v)
	case *sql.DB:
		return run(ctx, v, opts, fn)
	default:
		// unknown handles (fakes) are used as-is
		return fn(ctx, h)
	}
}

func run(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn with queries bound to a transaction, it is committed when fn
// returns nil and rolled back otherwise.
func WithTx(ctx context.Context, database *sql.DB, fn func(qry *Queries) error) error {
	sqltx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqltx.Rollback()

	err = fn(New(database).WithTx(sqltx))
	if err != nil {
		return err
	}
	err = sqltx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

package util

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type TransactionCallback func(*sqlx.Tx) error

// Transaction runs cb in a single transaction, the transaction is rolled back
// if cb returns any error. That error is returned as-is, or wrapped along
// with the rollback error if the rollback fails too.
func Transaction(ctx context.Context, db *sqlx.DB, cb TransactionCallback) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}

	if err := cb(tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("rollback error: %s; original error: %w", err2, err)
		}

		return err
	}

	return tx.Commit()
}

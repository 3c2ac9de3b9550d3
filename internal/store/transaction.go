// Package store provides abstractions and implementations for data persistence
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-tutor/internal/platform/logger"
)

// TxFn is the body of a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction opens a transaction on db with opts (nil for the driver
// default), runs fn and commits. An error from fn rolls back and is returned
// unwrapped, so callers can still match store sentinels. A panic in fn rolls
// back and is re-raised. Begin and commit failures wrap ErrTransactionFailed.
func RunInTransaction(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(log, tx, fmt.Errorf("panic: %v", p))
			// ALLOW-PANIC: re-raise after rollback
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := rollback(log, tx, err); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	// Commit on a canceled context fails; the driver has rolled back by then.
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	log.Debug("transaction committed")
	return nil
}

// rollback aborts tx after cause and reports a rollback failure, if any.
// sql.ErrTxDone means the driver already aborted it.
func rollback(log *slog.Logger, tx *sql.Tx, cause error) error {
	err := tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		log.Debug("transaction rolled back", slog.String("cause", cause.Error()))
		return nil
	}
	log.Error("failed to roll back transaction",
		slog.String("rollback_error", err.Error()),
		slog.String("cause", cause.Error()))
	return fmt.Errorf("rollback: %w", err)
}

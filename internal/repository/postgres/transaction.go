package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"

	// maxTxAttempts bounds retries of a unit of work that lost a
	// serialization race with another server instance.
	maxTxAttempts = 3
)

// TransactionManager runs units of work in pgx transactions with the given
// options, retrying serialization failures and deadlocks.
type TransactionManager struct {
	pool   *pgxpool.Pool
	opts   pgx.TxOptions
	logger *slog.Logger
}

// NewTransactionManager creates a transaction manager. The zero TxOptions
// means READ COMMITTED.
func NewTransactionManager(pool *pgxpool.Pool, opts pgx.TxOptions, logger *slog.Logger) *TransactionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionManager{pool: pool, opts: opts, logger: logger}
}

var _ repositories.TransactionManager = (*TransactionManager)(nil)

// ExecTx runs fn in a transaction. A call made inside another ExecTx joins
// the outer transaction and is never retried on its own.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if repositories.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = tm.run(ctx, fn)
		if !retryable(err) {
			return err
		}
		tm.logger.Debug("retrying transaction", "attempt", attempt, "error", err)
	}
	return err
}

func (tm *TransactionManager) run(ctx context.Context, fn repositories.TxFn) error {
	tx, err := tm.pool.BeginTx(ctx, tm.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// ErrTxClosed after a successful commit.
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			tm.logger.Warn("rollback failed", "error", err)
		}
	}()

	if err := fn(repositories.ContextWithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	code, _ := violation(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

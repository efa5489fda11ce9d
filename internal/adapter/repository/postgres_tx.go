package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"book-rag/internal/domain"
)

type txKey struct{}

// InjectTx injects the transaction into the context so repositories in the
// same call chain share it.
func InjectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// ExtractTx extracts the transaction from the context, or nil.
func ExtractTx(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

type txManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a pgx-backed transaction manager.
func NewTransactionManager(pool *pgxpool.Pool) domain.TransactionManager {
	return &txManager{pool: pool}
}

func (tm *txManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(InjectTx(ctx, tx))
	return err
}

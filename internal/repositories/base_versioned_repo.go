package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// BaseVersionedRepo is embedded by the Postgres repositories. It owns the
// select-by-id statement and scanner for T and layers row locks and the
// optimistic update loop on top.
type BaseVersionedRepo[T EntityWithVersion] struct {
	db         DB
	selectByID string
	scan       func(row pgx.Row) (T, error)
}

// NewBaseRepo expects selectByID to end in a "WHERE id=$1" clause.
func NewBaseRepo[T EntityWithVersion](
	db DB,
	selectByID string,
	scan func(pgx.Row) (T, error),
) *BaseVersionedRepo[T] {
	return &BaseVersionedRepo[T]{db: db, selectByID: selectByID, scan: scan}
}

func (b *BaseVersionedRepo[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	return b.scan(b.db.QueryRow(ctx, b.selectByID, id))
}

// GetForUpdate reads the row and holds its lock until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (b *BaseVersionedRepo[T]) GetForUpdate(ctx context.Context, id uuid.UUID) (T, error) {
	return b.scan(b.db.QueryRow(ctx, b.selectByID+" FOR UPDATE", id))
}

func (b *BaseVersionedRepo[T]) UpdateWithRetry(
	ctx context.Context,
	id uuid.UUID,
	mutate func(T) error,
	updateIfVersion UpdateIfVersionFunc[T],
) error {
	return WithRetry(ctx, defaultMaxRetries, id, b.GetByID, updateIfVersion, mutate)
}

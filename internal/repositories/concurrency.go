package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// EntityWithVersion is a row guarded by row_version. T is always a pointer
// to a model; comparable lets WithRetry test it against the zero value, so a
// nil from a scanner that found no row reads as pgx.ErrNoRows.
type EntityWithVersion interface {
	comparable
	GetID() uuid.UUID
	GetRowVersion() int64
	SetRowVersion(int64)
}

type UpdateIfVersionFunc[T EntityWithVersion] func(
	ctx context.Context,
	entity T,
	expectedVersion int64,
) (pgconn.CommandTag, error)

type GetByIDFunc[T EntityWithVersion] func(ctx context.Context, id uuid.UUID) (T, error)

// defaultMaxRetries bounds contact and profile edits; counter mutations
// never go through here, they take row locks instead.
const defaultMaxRetries = 3

// WithRetry reads the row, applies mutate and writes it back only if
// row_version is unchanged. A lost race re-reads and tries again, up to
// maxRetries times, then fails with ErrRowVersionConflict.
func WithRetry[T EntityWithVersion](
	ctx context.Context,
	maxRetries int,
	id uuid.UUID,
	getByID GetByIDFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) error {
	var zero T
	for attempt := 0; attempt < maxRetries; attempt++ {
		current, err := getByID(ctx, id)
		if err != nil {
			return err
		}
		if current == zero {
			return pgx.ErrNoRows
		}

		seen := current.GetRowVersion()
		if err := mutate(current); err != nil {
			return err
		}

		tag, err := updateIfVersion(ctx, current, seen)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			current.SetRowVersion(seen + 1)
			return nil
		}
	}
	return fmt.Errorf("%w: %d attempts lost the race on %s",
		utils.ErrRowVersionConflict, maxRetries, id)
}

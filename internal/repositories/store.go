package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// Repos is the set of repositories bound to one connection or transaction.
type Repos struct {
	Properties PropertyRepository
	RoomTypes  RoomTypeRepository
	Rooms      RoomRepository
	Tenants    TenantRepository
	Notices    NoticeRepository
	AuditLogs  OwnerAuditLogRepository
}

// TxFunc runs inside one transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Repos) error

// Store hands out repositories and runs multi-record mutations atomically.
type Store interface {
	// Repos returns repositories outside any transaction. Do not call it
	// from inside a TxFunc.
	Repos() Repos
	WithinTx(ctx context.Context, fn TxFunc) error
	// WithinReadTx runs fn against one consistent snapshot. Writes through
	// the repos fail.
	WithinReadTx(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
	Close()
}

func newRepos(db DB) Repos {
	return Repos{
		Properties: NewPropertyRepository(db),
		RoomTypes:  NewRoomTypeRepository(db),
		Rooms:      NewRoomRepository(db),
		Tenants:    NewTenantRepository(db),
		Notices:    NewNoticeRepository(db),
		AuditLogs:  NewOwnerAuditLogRepository(db),
	}
}

type pgStore struct {
	pool  *pgxpool.Pool
	repos Repos
}

func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, repos: newRepos(pool)}
}

func (s *pgStore) Repos() Repos {
	return s.repos
}

// WithinTx opens a read-committed transaction. Row locks taken with
// GetForUpdate are held until commit or rollback.
func (s *pgStore) WithinTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				utils.Logger.WithError(rbErr).Warn("tx rollback failed")
			}
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	err = fn(ctx, newRepos(tx))
	return err
}

// WithinReadTx opens a repeatable-read, read-only transaction so every
// query in fn sees the same snapshot.
func (s *pgStore) WithinReadTx(ctx context.Context, fn TxFunc) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			utils.Logger.WithError(rbErr).Warn("read tx rollback failed")
		}
	}()
	return fn(ctx, newRepos(tx))
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *pgStore) Close() {
	s.pool.Close()
}

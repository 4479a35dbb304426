package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/config"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

type App struct {
	Config *config.Config
	// DB is nil when the memory store is selected.
	DB    *pgxpool.Pool
	Store repositories.Store
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		utils.Logger.Warn("Using the in-memory store; data is lost on restart")
		return &App{Config: cfg, Store: repositories.NewMemoryStore()}, nil
	}

	dbPool, err := ConnectDB(context.Background(), cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	return &App{
		Config: cfg,
		DB:     dbPool,
		Store:  repositories.NewPgStore(dbPool),
	}, nil
}

// ConnectDB retries with exponential backoff so the service can start
// before the database is ready.
func ConnectDB(parent context.Context, databaseURL string) (*pgxpool.Pool, error) {
	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(parent, connectTimeout)
		dbPool, err = newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("connected to DB on attempt %d", i)
			return dbPool, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		if i == maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
}

func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
		utils.Logger.Info("occupancy store closed.")
	}
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}

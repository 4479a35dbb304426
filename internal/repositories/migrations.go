package repositories

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migration struct {
	version string
	up      string
	down    string
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	byVersion := map[string]*migration{}
	for _, e := range entries {
		name := e.Name()
		body, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return nil, err
		}
		var version string
		var up bool
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			version, up = strings.TrimSuffix(name, ".up.sql"), true
		case strings.HasSuffix(name, ".down.sql"):
			version = strings.TrimSuffix(name, ".down.sql")
		default:
			continue
		}
		m, ok := byVersion[version]
		if !ok {
			m = &migration{version: version}
			byVersion[version] = m
		}
		if up {
			m.up = string(body)
		} else {
			m.down = string(body)
		}
	}

	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func ensureMigrationTable(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version     VARCHAR(255) PRIMARY KEY,
            applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `)
	return err
}

func appliedVersions(ctx context.Context, db DB) (map[string]bool, error) {
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// MigrateUp applies every embedded migration not yet recorded and returns
// the versions it ran.
func MigrateUp(ctx context.Context, db DB) ([]string, error) {
	if err := ensureMigrationTable(ctx, db); err != nil {
		return nil, err
	}
	all, err := loadMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range all {
		if applied[m.version] {
			continue
		}
		if _, err := db.Exec(ctx, m.up); err != nil {
			return ran, fmt.Errorf("migration %s: %w", m.version, err)
		}
		if _, err := db.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
			return ran, err
		}
		utils.Logger.WithField("version", m.version).Info("Applied migration")
		ran = append(ran, m.version)
	}
	return ran, nil
}

// MigrateDown reverts the most recently applied migration, if any.
func MigrateDown(ctx context.Context, db DB) (string, error) {
	if err := ensureMigrationTable(ctx, db); err != nil {
		return "", err
	}
	all, err := loadMigrations()
	if err != nil {
		return "", err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return "", err
	}
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if !applied[m.version] {
			continue
		}
		if m.down == "" {
			return "", fmt.Errorf("migration %s has no down script", m.version)
		}
		if _, err := db.Exec(ctx, m.down); err != nil {
			return "", fmt.Errorf("revert %s: %w", m.version, err)
		}
		if _, err := db.Exec(ctx, `DELETE FROM schema_migrations WHERE version=$1`, m.version); err != nil {
			return "", err
		}
		utils.Logger.WithField("version", m.version).Info("Reverted migration")
		return m.version, nil
	}
	return "", nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/realstay2025-maker/pgfinder-sub001/internal/app"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/config"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

var dbURL string

func main() {
	_ = godotenv.Load()
	utils.InitLogger("occupancyctl")

	rootCmd := &cobra.Command{
		Use:   "occupancyctl",
		Short: "Operate the occupancy database",
	}
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", os.Getenv("DB_URL"), "Postgres connection URL (defaults to $DB_URL)")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	migrateCmd.AddCommand(upCmd(), downCmd())

	rootCmd.AddCommand(migrateCmd, seedCmd(), verifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	if dbURL == "" {
		return nil, errors.New("no database URL: pass --db-url or set DB_URL")
	}
	return app.ConnectDB(ctx, dbURL)
}

func openStore(ctx context.Context) (repositories.Store, func(), error) {
	pool, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := repositories.NewPgStore(pool)
	return store, store.Close, nil
}

func newService(store repositories.Store) (*services.OccupancyService, func()) {
	cfg := &config.Config{
		AppName:                "occupancyctl",
		NoticeWindowLastDay:    config.DefaultNoticeWindowLastDay,
		VacateReminderLeadDays: 2,
	}
	guard := services.NewOwnershipGuard(store.Repos().Properties, time.Minute)
	return services.NewOccupancyService(cfg, store, guard, nil), guard.Stop
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := repositories.MigrateUp(ctx, pool)
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			if len(applied) == 0 {
				fmt.Println("No pending migrations.")
				return nil
			}
			for _, v := range applied {
				fmt.Printf("Applied migration: %s\n", v)
			}
			return nil
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			version, err := repositories.MigrateDown(ctx, pool)
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			if version == "" {
				fmt.Println("Nothing to roll back.")
				return nil
			}
			fmt.Printf("Rolled back migration: %s\n", version)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo property and tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			svc, stop := newService(store)
			defer stop()
			return app.SeedAllTestData(ctx, svc)
		},
	}
}

func verifyCmd() *cobra.Command {
	var propertyID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare occupancy counters with the tenant ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			svc, stop := newService(store)
			defer stop()

			if propertyID == "" {
				bad, err := svc.RunConsistencySweep(ctx)
				if err != nil {
					return err
				}
				if bad > 0 {
					return fmt.Errorf("%d properties are inconsistent", bad)
				}
				fmt.Println("All properties consistent.")
				return nil
			}

			id, err := uuid.Parse(propertyID)
			if err != nil {
				return fmt.Errorf("invalid --property: %w", err)
			}
			report, err := svc.VerifyProperty(ctx, id)
			if report != nil {
				for _, issue := range report.Issues {
					fmt.Printf("%-24s %s  %s\n", issue.Kind, issue.TargetID, issue.Message)
				}
			}
			if err != nil {
				return err
			}
			fmt.Println("Property consistent.")
			return nil
		},
	}
	cmd.Flags().StringVar(&propertyID, "property", "", "verify a single property ID")
	return cmd
}

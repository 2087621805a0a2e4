package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrate(persistence.RunMigrations),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of every migration",
	RunE:  runMigrate(persistence.MigrationStatus),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrate(action func(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if cfg.Postgres.DSN == "" {
			return fmt.Errorf("migrate: POSTGRES_DSN is required")
		}
		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := action(cmd.Context(), pg.Pool, logger); err != nil {
			return fmt.Errorf("migrate %s: %w", cmd.Name(), err)
		}
		return nil
	}
}

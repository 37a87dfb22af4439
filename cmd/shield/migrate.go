package main

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/bltz-shield/internal/config"
	"github.com/deppfellow/bltz-shield/internal/database"
	"github.com/deppfellow/bltz-shield/internal/logger"
	"github.com/spf13/cobra"
)

var migrateFlags struct {
	timeout time.Duration
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Create or upgrade the browser_meta table in PostgreSQL.

Uses the SHIELD_DATABASE.* settings. The migrations are embedded in the
binary.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().DurationVar(&migrateFlags.timeout, "timeout", time.Minute, "give up after this long")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Host == "" || cfg.Database.Name == "" {
		return errors.New("database.host and database.name must be set to run migrations")
	}

	log := logger.NewLogger(cfg.Observability)

	ctx, cancel := context.WithTimeout(cmd.Context(), migrateFlags.timeout)
	defer cancel()

	return database.Migrate(ctx, &log, cfg)
}

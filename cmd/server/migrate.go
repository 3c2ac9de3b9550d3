package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/scry-tutor/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Run database migrations",
		Long: `Apply or inspect the embedded SQL migrations against database.url.

Examples:
  scry-tutor migrate up
  scry-tutor migrate status`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "reset", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), *configFile, postgres.MigrateCommand(args[0]))
		},
	}
	return cmd
}

func runMigrate(ctx context.Context, configFile string, command postgres.MigrateCommand) error {
	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("database.url must be set to run migrations")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := postgres.Migrate(ctx, db, command, cfg.Database.MigrationsTable, log); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

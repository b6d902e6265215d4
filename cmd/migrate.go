package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veskrna/face-attend/internal/config"
	"github.com/veskrna/face-attend/internal/database/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply pending database migrations and exit.
The serve command applies migrations on startup too; this command is
for running them explicitly, e.g. from a deploy pipeline.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := pool.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	applied, err := pool.MigrationsApplied(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Database is up to date (%d migrations applied)\n", len(applied))
	return nil
}

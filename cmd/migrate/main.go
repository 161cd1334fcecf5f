package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kevin07696/payment-intents/internal/adapters/postgres"
	"github.com/kevin07696/payment-intents/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded payment-intents schema migrations",
		Long: `Apply the embedded payment-intents schema migrations.

The database is configured with DATABASE_URL or DB_HOST, DB_PORT, DB_USER,
DB_PASSWORD, DB_NAME and DB_SSL_MODE.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline for the command")

	commands := []struct {
		use   string
		short string
		args  cobra.PositionalArgs
	}{
		{"up", "Migrate the DB to the most recent version available", cobra.NoArgs},
		{"up-by-one", "Migrate the DB up by 1", cobra.NoArgs},
		{"up-to VERSION", "Migrate the DB to a specific VERSION", cobra.ExactArgs(1)},
		{"down", "Roll back the version by 1", cobra.NoArgs},
		{"down-to VERSION", "Roll back to a specific VERSION", cobra.ExactArgs(1)},
		{"redo", "Re-run the latest migration", cobra.NoArgs},
		{"reset", "Roll back all migrations", cobra.NoArgs},
		{"status", "Dump the migration status for the current DB", cobra.NoArgs},
		{"version", "Print the current version of the database", cobra.NoArgs},
	}

	for _, c := range commands {
		root.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  c.args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGoose(cmd.Context(), cmd.Name(), args, timeout)
			},
		})
	}

	return root
}

func runGoose(ctx context.Context, command string, args []string, timeout time.Duration) error {
	logger := zap.Must(zap.NewProduction())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Database.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("migrations require STORE_DRIVER=postgres, got %q", cfg.Database.Driver)
	}

	db, err := postgres.OpenMigrationDB(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db, command, args...); err != nil {
		logger.Error("Migration failed", zap.String("command", command), zap.Error(err))
		return err
	}
	logger.Info("Migration command completed", zap.String("command", command))
	return nil
}

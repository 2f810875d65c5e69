package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/tattva-health/portal-service/internal/config"
	"github.com/tattva-health/portal-service/internal/db"
	"github.com/tattva-health/portal-service/internal/logging"
	"github.com/tattva-health/portal-service/internal/otp"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-cleanup",
		Short: "Maintenance jobs for the portal service",
	}
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Minute, "overall job timeout")

	rootCmd.AddCommand(purgeCodesCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and a logger for a job.
func setup(cmd *cobra.Command) (*config.Config, *zap.SugaredLogger, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	return cfg, logger, ctx, cancel, nil
}

func purgeCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-codes",
		Short: "Delete one-time codes that are past their lifetime",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, ctx, cancel, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer logger.Sync()

			logger.Infow("Code cleanup job starting", "store", cfg.CodeStore, "ttl", cfg.CodeTTL)

			var store otp.CodeStore
			switch cfg.CodeStore {
			case config.CodeStorePostgres:
				database, err := db.Connect(ctx, cfg.Postgres(), logger)
				if err != nil {
					return err
				}
				defer database.Close()
				store = otp.NewPostgresStore(database, cfg.CodeTTL)
			case config.CodeStoreRedis:
				client := redis.NewClient(cfg.Redis())
				defer client.Close()
				store = otp.NewRedisStore(client, cfg.CodeTTL)
			default:
				return fmt.Errorf("CODE_STORE %q lives in the server process; nothing to purge", cfg.CodeStore)
			}

			n, err := store.PurgeExpired(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			logger.Infow("✓ Code cleanup completed", "purged", n)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the portal schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, ctx, cancel, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer logger.Sync()

			database, err := db.Connect(ctx, cfg.Postgres(), logger)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(ctx, database); err != nil {
				return err
			}
			logger.Info("✓ Schema applied")
			return nil
		},
	}
}

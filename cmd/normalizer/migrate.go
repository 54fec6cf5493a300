package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the messages schema to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := newLoggerProvider(logLevel).GetLogger("normalizer.migrate")

			cfg, err := loadConfig(ctx, runtimeOverrides{})
			if err != nil {
				return err
			}
			client, err := openDatabase(ctx, cfg.Database, logLevel == "trace")
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("migrations applied", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

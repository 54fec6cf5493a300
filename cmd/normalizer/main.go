// Command normalizer runs the webhook normalization service.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "normalizer",
		Short:         "Normalize WhatsApp provider webhooks and classify message intent",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		newLoggerProvider(logLevel).GetLogger("normalizer").Error("command failed", "error", err)
		os.Exit(1)
	}
}

package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ledger/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "ledger",
	Short:         "General ledger service and administration tools",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// bootstrap loads configuration and builds the service container.
func bootstrap(ctx context.Context) (*app.Container, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)
	return app.NewContainer(ctx, cfg, logger)
}

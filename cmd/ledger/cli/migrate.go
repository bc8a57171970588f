package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ledger/internal/app"
	"github.com/odyssey-erp/ledger/internal/platform/db"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd, true)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd, false)
	},
}

func runMigrate(cmd *cobra.Command, up bool) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if err := db.Migrate(cfg.PGDSN, up); err != nil {
		return err
	}
	direction := "up"
	if !up {
		direction = "down"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: done\n", direction)
	return nil
}

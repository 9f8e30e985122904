// Package cmd contains the maintenance commands for the shoplist database.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"shoplist-service/internal/config"
	"shoplist-service/internal/database"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "shoplist-admin",
	Short: "Database maintenance for the shoplist service",
	Long: `shoplist-admin migrates the shoplist schema and seeds demo data.

Connection settings are read from .env and the environment, the same way
the server reads them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// connect opens the database; the schema is migrated on connect.
func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.NewPostgresConnection(cfg.Database.DSN())
}

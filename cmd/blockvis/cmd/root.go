package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/blockvis/internal/core/db"
	"github.com/solatis/blockvis/internal/core/logger"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "blockvis",
	Short:         "Block visibility rule engine",
	Long:          `blockvis migrates legacy block visibility rules and decides which blocks render for a given viewer.`,
	SilenceUsage:  true,
	Version:       Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(logLevel, logFormat)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// openDatabase opens --db-url. With requireSchema the command refuses to
// run against a database that has pending migrations.
func openDatabase(ctx context.Context, requireSchema bool) (*sqlx.DB, *db.Queries, error) {
	if dbURL == "" {
		return nil, nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if requireSchema {
		if err := db.RequireSchema(ctx, database); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("%w (run 'blockvis migrate up' first)", err)
		}
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/viktsys/b3history/config"
	"github.com/viktsys/b3history/database"
	"github.com/viktsys/b3history/logger"
)

const serviceName = "b3history"

var envFile string

var rootCMD = &cobra.Command{
	Use:   "b3history",
	Short: "B3 stock history data-access service",
	Long: `An HTTP service that stores and serves daily stock history records
keyed by ticker and date. Running without a subcommand starts the server.`,
	Run: runServer,
}

func Execute() {
	err := rootCMD.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCMD.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file loaded before reading the environment")

	rootCMD.AddCommand(serverCMD)
	rootCMD.AddCommand(ingestCMD)
}

// bootstrap loads configuration, configures logging and opens the store with its schema in place
func bootstrap(ctx context.Context) (*config.Config, database.Store, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		File:        cfg.Logging.File,
		ServiceName: serviceName,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info().Str("driver", cfg.Database.Driver).Str("env", cfg.Env).Msg("Initializing database...")

	store, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	return cfg, store, nil
}

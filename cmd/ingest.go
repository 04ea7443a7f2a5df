package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/viktsys/b3history/ingest"
)

var ingestCMD = &cobra.Command{
	Use:   "ingest [data-directory]",
	Short: "Load JSON and CSV stock history files from the specified directory",
	Long: `Upsert every *.json (array of records, same shape as POST /stocks_history)
and *.csv (header row naming the record fields) file in the directory.
Files are processed concurrently; each batch is written atomically.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dataDir := args[0]

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, store, err := bootstrap(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer store.Close()

		processor := ingest.NewProcessor(store, cfg.Ingest)

		log.Info().Str("dir", dataDir).Msg("Ingesting directory")

		summary, err := processor.ProcessDirectory(ctx, dataDir)
		if err != nil {
			log.Error().Err(err).Int("failed", summary.Failed).Msg("Ingestion finished with errors")
			store.Close()
			os.Exit(1)
		}

		fmt.Printf("Ingested %d rows from %d files in %v\n", summary.Rows, summary.Files, summary.Duration)
	},
}

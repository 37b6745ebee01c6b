package cmd

import (
	"context"
	"log"

	"github.com/abhishekrajdhar/rfp-responder/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scrape the source portals and store newly discovered rfps",
	Run: func(cmd *cobra.Command, _ []string) {
		ingest(cmd)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func ingest(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if len(config.Sources) == 0 {
		logger.Fatal("at least one portal url is required under sources")
	}

	store := openStorage(ctx, config, logger)
	defer store.Close()

	generator := newGenerator(ctx, config, logger)

	ingestor, err := newIngestor(config, generator, store, logger)
	if err != nil {
		logger.Fatal("preparing the ingestion pipeline", zap.Error(err))
	}

	report := ingestor.Ingest(ctx, config.Sources)

	logger.Info("ingestion finished",
		zap.Int("discovered", report.Discovered),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
	)
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/abhishekrajdhar/rfp-responder/internal/logger"
	"github.com/abhishekrajdhar/rfp-responder/internal/pipeline"
	"github.com/abhishekrajdhar/rfp-responder/internal/proposal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Produce technical, pricing and management summaries for an rfp",
	Run: func(cmd *cobra.Command, _ []string) {
		summarize(cmd)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().String("id", "", "external id of the rfp (default is the top-ranked one)")
}

func summarize(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store := openStorage(ctx, config, logger)
	defer store.Close()

	externalID := cmd.Flag("id").Value.String()
	if externalID == "" {
		if len(config.Sources) == 0 {
			logger.Fatal("at least one portal url is required under sources to pick the top rfp")
		}

		orchestrator := newOrchestrator(config, store, nil, nil, logger)

		ranked, err := orchestrator.Scan(ctx, config.Sources)
		if err != nil {
			logger.Fatal("scanning stored rfps", zap.Error(err))
		}
		if len(ranked) == 0 {
			logger.Fatal("exiting", zap.Error(pipeline.ErrNoQualifyingRFP))
		}
		externalID = ranked[0].ID
	}

	selected, err := store.FindByExternalID(ctx, externalID)
	if err != nil {
		logger.Fatal("resolving rfp", zap.String("external_id", externalID), zap.Error(err))
	}
	if selected == nil {
		logger.Fatal("exiting",
			zap.String("external_id", externalID),
			zap.Error(errors.New("rfp not found")),
		)
	}

	drafter := proposal.New(newGenerator(ctx, config, logger), logger)
	summaries := drafter.SummarizeForRoles(ctx, selected)

	out, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		logger.Fatal("encoding the summaries", zap.Error(err))
	}

	fmt.Println(string(out))
}

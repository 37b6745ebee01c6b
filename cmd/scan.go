package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/abhishekrajdhar/rfp-responder/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rank the stored rfps due within the horizon without quoting",
	Run: func(cmd *cobra.Command, _ []string) {
		scan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func scan(_ *cobra.Command) {
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

	orchestrator := newOrchestrator(config, store, nil, nil, logger)

	ranked, err := orchestrator.Scan(ctx, config.Sources)
	if err != nil {
		logger.Fatal("scanning stored rfps", zap.Error(err))
	}

	if len(ranked) == 0 {
		logger.Info("exiting", zap.String("reason", "no rfps due within the horizon"))
		return
	}

	out, err := json.MarshalIndent(ranked, "", "  ")
	if err != nil {
		logger.Fatal("encoding the ranking", zap.Error(err))
	}

	fmt.Println(string(out))
}

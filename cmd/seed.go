package cmd

import (
	"context"
	"log"

	"github.com/abhishekrajdhar/rfp-responder/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog, price lists and sample rfps into the database",
	Run: func(cmd *cobra.Command, _ []string) {
		seed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(_ *cobra.Command) {
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

	if err := store.Seed(ctx); err != nil {
		logger.Fatal("seeding demo data", zap.Error(err))
	}

	logger.Info("demo data seeded")
}

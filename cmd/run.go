package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abhishekrajdhar/rfp-responder/internal/ai"
	"github.com/abhishekrajdhar/rfp-responder/internal/ai/gemini"
	"github.com/abhishekrajdhar/rfp-responder/internal/document"
	"github.com/abhishekrajdhar/rfp-responder/internal/extract"
	"github.com/abhishekrajdhar/rfp-responder/internal/logger"
	"github.com/abhishekrajdhar/rfp-responder/internal/matching"
	"github.com/abhishekrajdhar/rfp-responder/internal/ocr"
	"github.com/abhishekrajdhar/rfp-responder/internal/pipeline"
	"github.com/abhishekrajdhar/rfp-responder/internal/pricing"
	"github.com/abhishekrajdhar/rfp-responder/internal/proposal"
	"github.com/abhishekrajdhar/rfp-responder/internal/ranking"
	"github.com/abhishekrajdhar/rfp-responder/internal/scraper"
	"github.com/abhishekrajdhar/rfp-responder/internal/secrets"
	"github.com/abhishekrajdhar/rfp-responder/internal/storage"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var draftPrompt = promptui.Select{
	Label: "Draft the proposal narrative?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the rfp-responder main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("live", "l", false, "scrape the source portals before ranking")
	runCmd.Flags().Bool("no-draft", false, "skip the proposal narrative for the selected rfp")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before drafting the proposal")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the rfp-responder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if len(config.Sources) == 0 {
		logger.Fatal("at least one portal url is required under sources")
	}

	store := openStorage(ctx, config, logger)
	defer store.Close()

	generator := newGenerator(ctx, config, logger)

	live := cmd.Flag("live").Value.String() == "true"

	var ingestor *pipeline.Ingestor
	if live {
		ingestor, err = newIngestor(config, generator, store, logger)
		if err != nil {
			logger.Fatal("preparing the ingestion pipeline", zap.Error(err))
		}
	}

	orchestrator := newOrchestrator(config, store, generator, ingestor, logger)

	pkg, err := orchestrator.Run(ctx, config.Sources, live, false)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoQualifyingRFP) {
			logger.Info("exiting", zap.String("reason", "no qualifying rfps found"))
			return
		}
		logger.Fatal("running the pipeline", zap.Error(err))
	}

	if wantDraft(cmd, logger) {
		drafter := proposal.New(generator, logger)
		pkg.Proposal = drafter.Draft(ctx, pkg.Summary, pkg.Matches, pkg.Pricing)
	}

	out, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		logger.Fatal("encoding the quote package", zap.Error(err))
	}

	fmt.Println(string(out))
}

func wantDraft(cmd *cobra.Command, logger *zap.Logger) bool {
	if cmd.Flag("no-draft").Value.String() == "true" {
		return false
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return true
	}

	_, action, err := draftPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	return action == PromptYes
}

func openStorage(ctx context.Context, config *Config, logger *zap.Logger) *storage.Postgres {
	dsn := strings.TrimSpace(config.DatabaseURL)
	if dsn == "" {
		dsn = strings.TrimSpace(viper.GetString("database-url"))
	}

	if dsn == "" {
		logger.Fatal(
			"database url is not configured",
			zap.String("hint", "set DATABASE_URL environment variable or the 'database-url' key in the configuration file"),
		)
	}

	store, err := storage.Open(dsn, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("preparing the database schema", zap.Error(err))
	}

	return store
}

// newGenerator returns a ready Gemini generator or nil. An unconfigured or
// failing AI provider degrades the run to fallback text, never aborts it.
func newGenerator(ctx context.Context, config *Config, logger *zap.Logger) ai.Generator {
	if config.AI == nil || !config.AI.Enabled {
		logger.Info("ai generation disabled")
		return nil
	}

	if config.AI.Provider != "" && config.AI.Provider != "gemini" {
		logger.Warn("unsupported ai provider, continuing without ai", zap.String("provider", config.AI.Provider))
		return nil
	}

	var keyFile, model string
	if config.AI.Gemini != nil {
		keyFile = strings.TrimSpace(config.AI.Gemini.APIKeyFile)
		model = config.AI.Gemini.Model
	}
	if keyFile == "" {
		keyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	key, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: keyFile,
	})
	if err != nil {
		logger.Warn("loading gemini api key, continuing without ai", zap.Error(err))
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, key, model)
	if err != nil {
		logger.Warn("creating gemini client, continuing without ai", zap.Error(err))
		return nil
	}

	logger.Info("gemini client ready", zap.String("model", generator.Model()))
	return generator
}

func newIngestor(config *Config, generator ai.Generator, store *storage.Postgres, logger *zap.Logger) (*pipeline.Ingestor, error) {
	opts := scraper.Options{}
	contextWindow := 0
	if config.Scraper != nil {
		opts.DownloadDir = config.Scraper.DownloadDir
		opts.PageLoadWait = time.Duration(config.Scraper.PageLoadWaitSeconds) * time.Second
		opts.FetchTimeout = time.Duration(config.Scraper.FetchTimeoutSeconds) * time.Second
	}
	if config.Extraction != nil {
		contextWindow = config.Extraction.ContextWindow
	}

	engine := ocr.New()

	portal, err := scraper.NewPortal(opts, engine, logger)
	if err != nil {
		return nil, err
	}

	extractor := document.New(document.OpenFitz, engine, logger)
	bridge := extract.New(generator, contextWindow, logger)

	return pipeline.NewIngestor(portal, extractor, bridge, store, logger), nil
}

func newOrchestrator(config *Config, store *storage.Postgres, generator ai.Generator, ingestor *pipeline.Ingestor, logger *zap.Logger) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(
		store,
		store,
		ranking.New(logger),
		matching.New(),
		pricing.New(store),
		proposal.New(generator, logger),
		ingestor,
		config.Months,
		logger,
	)
}

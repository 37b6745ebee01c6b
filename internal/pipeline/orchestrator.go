package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/catalog"
	"github.com/abhishekrajdhar/rfp-responder/internal/matching"
	"github.com/abhishekrajdhar/rfp-responder/internal/pricing"
	"github.com/abhishekrajdhar/rfp-responder/internal/proposal"
	"github.com/abhishekrajdhar/rfp-responder/internal/ranking"
	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
)

// Selection failures are the one terminal error class: they surface to the
// caller instead of degrading, and are not retried.
var (
	ErrNoQualifyingRFP = errors.New("no qualifying rfps found")
	ErrRFPNotFound     = errors.New("selected rfp not found")
)

// QuotePackage is the end-to-end result for the selected RFP.
type QuotePackage struct {
	Summary  ranking.Summary          `json:"rfp_summary"`
	Matches  []matching.LineItemMatch `json:"technical_table"`
	Pricing  pricing.Summary          `json:"pricing_table"`
	Proposal string                   `json:"proposal_text,omitempty"`
}

// Orchestrator composes the full run: (optionally) ingest, rank, select the
// top RFP, match its line items, price them and draft the proposal.
type Orchestrator struct {
	store     rfp.Store
	inventory catalog.Inventory
	ranker    *ranking.Engine
	matcher   *matching.Matcher
	pricer    *pricing.Aggregator
	drafter   *proposal.Drafter
	ingestor  *Ingestor

	months int
	now    func() time.Time
	logger *zap.Logger
}

// NewOrchestrator creates the pipeline orchestrator. The ingestor may be nil
// when live ingestion is not wired (offline runs against stored RFPs only).
func NewOrchestrator(
	store rfp.Store,
	inventory catalog.Inventory,
	ranker *ranking.Engine,
	matcher *matching.Matcher,
	pricer *pricing.Aggregator,
	drafter *proposal.Drafter,
	ingestor *Ingestor,
	months int,
	logger *zap.Logger,
) *Orchestrator {
	if months <= 0 {
		months = 3
	}
	return &Orchestrator{
		store:     store,
		inventory: inventory,
		ranker:    ranker,
		matcher:   matcher,
		pricer:    pricer,
		drafter:   drafter,
		ingestor:  ingestor,
		months:    months,
		now:       time.Now,
		logger:    logger,
	}
}

// Scan ranks the stored RFPs due within the configured horizon, best first.
func (o *Orchestrator) Scan(ctx context.Context, urls []string) ([]ranking.Summary, error) {
	candidates, err := o.store.FindDueWithin(ctx, urls, o.months)
	if err != nil {
		return nil, fmt.Errorf("loading due rfps: %w", err)
	}

	products, err := o.inventory.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog snapshot: %w", err)
	}

	ranked := o.ranker.Rank(candidates, products, o.now())
	o.logger.Info("ranked rfps", zap.Int("candidates", len(candidates)))
	return ranked, nil
}

// Run executes the full pipeline. With live set it ingests the source URLs
// first; with draft set it also produces the proposal narrative. Run fails
// closed at selection: no ranked candidates, or an unresolvable selected id,
// end the invocation with a terminal error.
func (o *Orchestrator) Run(ctx context.Context, urls []string, live, draft bool) (*QuotePackage, error) {
	if live && o.ingestor != nil {
		report := o.ingestor.Ingest(ctx, urls)
		o.logger.Info("live ingestion finished",
			zap.Int("processed", report.Processed),
			zap.Int("skipped", report.Skipped),
		)
	}

	ranked, err := o.Scan(ctx, urls)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, ErrNoQualifyingRFP
	}

	chosen := ranked[0]

	selected, err := o.store.FindByExternalID(ctx, chosen.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving selected rfp %s: %w", chosen.ID, err)
	}
	if selected == nil {
		return nil, fmt.Errorf("%w: %s", ErrRFPNotFound, chosen.ID)
	}

	products, err := o.inventory.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog snapshot: %w", err)
	}

	matches := o.matcher.MatchRFP(selected, products)
	costs := o.pricer.Price(ctx, matches, selected.Tests)

	pkg := &QuotePackage{
		Summary: chosen,
		Matches: matches,
		Pricing: costs,
	}

	if draft && o.drafter != nil {
		pkg.Proposal = o.drafter.Draft(ctx, chosen, matches, costs)
	}

	o.logger.Info("pipeline run finished",
		zap.String("external_id", chosen.ID),
		zap.Float64("score", chosen.Score),
		zap.Float64("grand_total", costs.GrandTotal),
	)

	return pkg, nil
}

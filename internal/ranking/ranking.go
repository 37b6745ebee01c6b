// Package ranking scores and orders candidate RFPs by commercial opportunity.
package ranking

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/catalog"
	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
	"github.com/abhishekrajdhar/rfp-responder/internal/utils"
)

const (
	// minReadinessDays is the floor under which a due date is too urgent to
	// prepare a quality response.
	minReadinessDays = 7
	// readinessPlateauDays is where time readiness reaches its plateau.
	readinessPlateauDays = 30

	alignmentWeight = 0.6
	readinessWeight = 0.4

	scopeSummaryLimit = 200
)

// Summary is the ranking output for one RFP, ordered best first.
type Summary struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title"`
	SourceURL             string    `json:"source_url"`
	DueDate               time.Time `json:"due_date"`
	DaysToDue             int       `json:"days_to_due"`
	ShortScopeSummary     string    `json:"short_scope_summary"`
	ProductAlignmentScore float64   `json:"product_alignment_score"`
	TimeReadinessScore    float64   `json:"time_readiness_score"`
	Score                 float64   `json:"score"`
}

// Engine ranks RFP candidates against a catalog snapshot.
type Engine struct {
	logger *zap.Logger
}

// New creates a ranking engine.
func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Rank scores the candidates and returns them ordered by composite score
// descending. Ties keep the input order; callers rely on the first element
// being the best RFP to respond to.
func (e *Engine) Rank(candidates []*rfp.RFP, products []catalog.Product, today time.Time) []Summary {
	pairs := catalogPairs(products)

	results := make([]Summary, 0, len(candidates))
	for _, r := range candidates {
		days := daysUntil(today, r.DueDate)
		alignment := alignmentScore(r, pairs)
		readiness := readinessScore(days)
		composite := specs.Round2(alignmentWeight*alignment + readinessWeight*readiness)

		if e.logger != nil {
			e.logger.Debug("scored rfp",
				zap.String("external_id", r.ExternalID),
				zap.Int("days_to_due", days),
				zap.Float64("product_alignment", alignment),
				zap.Float64("time_readiness", readiness),
				zap.Float64("score", composite),
			)
		}

		results = append(results, Summary{
			ID:                    r.ExternalID,
			Title:                 r.Title,
			SourceURL:             r.SourceURL,
			DueDate:               r.DueDate,
			DaysToDue:             days,
			ShortScopeSummary:     scopeSummary(r),
			ProductAlignmentScore: alignment,
			TimeReadinessScore:    readiness,
			Score:                 composite,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// alignmentScore is the fraction of line items whose (conductor, insulation)
// pair exists anywhere in the catalog, as a percentage. Zero line items score
// zero, not full.
func alignmentScore(r *rfp.RFP, pairs map[string]struct{}) float64 {
	if len(r.LineItems) == 0 {
		return 0
	}

	aligned := 0
	for _, li := range r.LineItems {
		if _, ok := pairs[pairKey(li.Required)]; ok {
			aligned++
		}
	}

	return specs.Round2(100 * float64(aligned) / float64(len(r.LineItems)))
}

// readinessScore rises linearly with days-to-due to a plateau at 30 days out.
// Anything under a week scores zero regardless of product fit.
func readinessScore(days int) float64 {
	if days < minReadinessDays {
		return 0
	}
	score := float64(days) / readinessPlateauDays * 100
	if score > 100 {
		score = 100
	}
	return specs.Round2(score)
}

func catalogPairs(products []catalog.Product) map[string]struct{} {
	pairs := make(map[string]struct{}, len(products))
	for _, p := range products {
		pairs[pairKey(p.Specs)] = struct{}{}
	}
	return pairs
}

func pairKey(s specs.Spec) string {
	conductor := strings.ToLower(s[specs.AttrConductor].String())
	insulation := strings.ToLower(s[specs.AttrInsulation].String())
	return conductor + "/" + insulation
}

func daysUntil(today, due time.Time) int {
	return int(due.Sub(today).Hours() / 24)
}

func scopeSummary(r *rfp.RFP) string {
	parts := make([]string, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		parts = append(parts, li.Description)
	}
	scope := strings.Join(parts, ", ")
	if len(scope) <= scopeSummaryLimit {
		return scope
	}
	return utils.TruncateForLog(scope, scopeSummaryLimit)
}

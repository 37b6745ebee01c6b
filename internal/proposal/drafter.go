// Package proposal composes the narrative quote email. Drafting never fails:
// when the generative service is unconfigured or errors, callers get a fixed,
// clearly labeled fallback so the pipeline can always produce a response
// object even under total LLM outage.
package proposal

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/ai"
	"github.com/abhishekrajdhar/rfp-responder/internal/matching"
	"github.com/abhishekrajdhar/rfp-responder/internal/pricing"
	"github.com/abhishekrajdhar/rfp-responder/internal/ranking"
	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
)

//go:embed prompt.md
var promptTemplate string

// FallbackMarker prefixes every fallback narrative, so consumers can tell a
// drafted proposal from a degraded one.
const FallbackMarker = "AI proposal generation unavailable"

const unconfiguredFallback = FallbackMarker + ".\n\n" +
	"Draft Summary:\n" +
	"- OEM products mapped technically to RFP requirements\n" +
	"- Commercial pricing computed using internal pricing tables\n" +
	"- Suitable for immediate submission"

const errorFallback = FallbackMarker + " (temporary).\n\n" +
	"System successfully completed:\n" +
	"- Sales qualification\n" +
	"- Technical SKU matching\n" +
	"- Pricing consolidation\n"

// Drafter writes proposal narratives via the generative text service.
type Drafter struct {
	generator ai.Generator
	logger    *zap.Logger
}

// New creates a drafter. A nil generator is valid and yields the fallback
// narrative on every call.
func New(generator ai.Generator, logger *zap.Logger) *Drafter {
	return &Drafter{generator: generator, logger: logger}
}

// Draft produces the quote email text for a priced RFP.
func (d *Drafter) Draft(ctx context.Context, summary ranking.Summary, matches []matching.LineItemMatch, costs pricing.Summary) string {
	if d.generator == nil {
		return unconfiguredFallback
	}

	prompt := buildPrompt(summary, matches, costs)

	text, err := d.generator.GenerateContent(ctx, prompt)
	if err != nil {
		d.logger.Warn("proposal drafting failed, using fallback",
			zap.String("rfp_id", summary.ID),
			zap.Error(err),
		)
		return errorFallback
	}

	return strings.TrimSpace(text)
}

// SummarizeForRoles produces technical, pricing and management summaries of
// the RFP for internal circulation. Same fallback contract as Draft.
func (d *Drafter) SummarizeForRoles(ctx context.Context, r *rfp.RFP) map[string]string {
	var scope strings.Builder
	for _, li := range r.LineItems {
		fmt.Fprintf(&scope, "Line %d: %s, qty=%g m\n", li.LineNo, li.Description, li.QuantityM)
	}

	prompts := map[string]string{
		"technical_summary": "You are a cable design engineer.\n\nRFP scope:\n" + scope.String() +
			"\nSummarize ONLY the technical scope of supply in bullet points.",
		"pricing_summary": "You are a pricing analyst.\n\nRFP tests and acceptance requirements:\n" +
			strings.Join(r.Tests, ", ") +
			"\n\nSummarize the tests and any cost drivers in 5 bullets.",
		"management_summary": fmt.Sprintf(
			"You are a sales manager.\n\nRFP title: %s\nDue date: %s\n\nWrite a crisp 3-line business summary focusing on opportunity size and urgency.",
			r.Title, r.DueDate.Format("2006-01-02"),
		),
	}

	out := make(map[string]string, len(prompts))
	for role, prompt := range prompts {
		out[role] = d.generate(ctx, r.ExternalID, prompt)
	}
	return out
}

func (d *Drafter) generate(ctx context.Context, rfpID, prompt string) string {
	if d.generator == nil {
		return unconfiguredFallback
	}
	text, err := d.generator.GenerateContent(ctx, prompt)
	if err != nil {
		d.logger.Warn("summary generation failed, using fallback",
			zap.String("rfp_id", rfpID),
			zap.Error(err),
		)
		return errorFallback
	}
	return strings.TrimSpace(text)
}

func buildPrompt(summary ranking.Summary, matches []matching.LineItemMatch, costs pricing.Summary) string {
	var lines strings.Builder
	for _, m := range matches {
		if m.SelectedSKU == nil {
			fmt.Fprintf(&lines, "- Line %d: no catalog match, qty=%g m\n", m.LineNo, m.QuantityM)
			continue
		}
		fmt.Fprintf(&lines, "- Line %d: %s (%s), qty=%g m, spec_match=%g%%\n",
			m.LineNo, m.SelectedSKU.Name, m.SelectedSKU.SKU, m.QuantityM, m.SelectedSKU.SpecMatchPercent)
	}

	pricingTxt := fmt.Sprintf(
		"Total material cost: %s %.2f\nTotal test cost: %s %.2f\nGrand total: %s %.2f",
		costs.Currency, costs.TotalMaterialCost,
		costs.Currency, costs.TotalTestsCost,
		costs.Currency, costs.GrandTotal,
	)

	prompt := strings.ReplaceAll(promptTemplate, "{{TITLE}}", summary.Title)
	prompt = strings.ReplaceAll(prompt, "{{DUE_DATE}}", summary.DueDate.Format("2006-01-02"))
	prompt = strings.ReplaceAll(prompt, "{{SCOPE_LINES}}", strings.TrimRight(lines.String(), "\n"))
	return strings.ReplaceAll(prompt, "{{PRICING}}", pricingTxt)
}

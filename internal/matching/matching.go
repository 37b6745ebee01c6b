// Package matching pairs RFP line items with the best-fitting catalog SKUs.
package matching

import (
	"sort"

	"github.com/abhishekrajdhar/rfp-responder/internal/catalog"
	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
)

// topMatches is how many scored candidates a line item keeps.
const topMatches = 3

// SpecMatchEntry is one scored (line item, product) pairing.
type SpecMatchEntry struct {
	SKU              string            `json:"sku"`
	Name             string            `json:"name"`
	SpecMatchPercent float64           `json:"spec_match_percent"`
	Specs            map[string]string `json:"specs"`
}

// LineItemMatch is a line item with its highest-scoring catalog candidates.
// SelectedSKU is nil only when the catalog is empty; pricing treats that as
// an unpriced line rather than a failure.
type LineItemMatch struct {
	LineNo      int              `json:"line_no"`
	Description string           `json:"description"`
	QuantityM   float64          `json:"quantity_m"`
	Top3Matches []SpecMatchEntry `json:"top_3_matches"`
	SelectedSKU *SpecMatchEntry  `json:"selected_sku"`
}

// Matcher scores RFP line items against the full catalog.
type Matcher struct{}

// New creates a technical matcher.
func New() *Matcher {
	return &Matcher{}
}

// MatchRFP produces one LineItemMatch per line item, in line-item order.
func (m *Matcher) MatchRFP(r *rfp.RFP, products []catalog.Product) []LineItemMatch {
	matches := make([]LineItemMatch, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		matches = append(matches, m.MatchLineItem(li, products))
	}
	return matches
}

// MatchLineItem scores every product against the line item's required spec
// and keeps the top candidates. The sort is stable: ties keep catalog
// iteration order.
func (m *Matcher) MatchLineItem(li rfp.LineItem, products []catalog.Product) LineItemMatch {
	scored := make([]SpecMatchEntry, 0, len(products))
	for _, p := range products {
		scored = append(scored, SpecMatchEntry{
			SKU:              p.SKU,
			Name:             p.Name,
			SpecMatchPercent: specs.Match(li.Required, p.Specs),
			Specs:            p.Specs.Strings(),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SpecMatchPercent > scored[j].SpecMatchPercent
	})

	top := scored
	if len(top) > topMatches {
		top = top[:topMatches]
	}

	var selected *SpecMatchEntry
	if len(top) > 0 {
		selected = &top[0]
	}

	return LineItemMatch{
		LineNo:      li.LineNo,
		Description: li.Description,
		QuantityM:   li.QuantityM,
		Top3Matches: top,
		SelectedSKU: selected,
	}
}

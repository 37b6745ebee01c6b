// Package pricing turns matched line items and acceptance tests into a
// costed quote. All money values round to two decimals at the row level
// before aggregation, so the summary is a sum of already-rounded figures.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/abhishekrajdhar/rfp-responder/internal/catalog"
	"github.com/abhishekrajdhar/rfp-responder/internal/matching"
)

// Row is one costed quote line. TestsCost carries the full RFP-level test
// total so each row reads as a self-contained quote; it is not a per-line
// charge.
type Row struct {
	LineNo       int     `json:"line_no"`
	SelectedSKU  string  `json:"selected_sku"`
	QuantityM    float64 `json:"quantity_m"`
	UnitPrice    float64 `json:"unit_price"`
	MaterialCost float64 `json:"material_cost"`
	TestsCost    float64 `json:"tests_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// Summary aggregates the quote. Tests are priced once per RFP: the tests
// total is the RFP-level figure, not a sum over rows, so multiple line items
// never multiply the test charges.
type Summary struct {
	Currency          string  `json:"currency"`
	Rows              []Row   `json:"rows"`
	TotalMaterialCost float64 `json:"total_material_cost"`
	TotalTestsCost    float64 `json:"total_tests_cost"`
	GrandTotal        float64 `json:"grand_total"`
}

// Aggregator prices matched line items via price-book lookups.
type Aggregator struct {
	prices   catalog.PriceBook
	currency string
}

// New creates a pricing aggregator.
func New(prices catalog.PriceBook) *Aggregator {
	return &Aggregator{prices: prices, currency: "INR"}
}

// Price builds the costed quote for the matched line items and the RFP's
// acceptance-test codes. Unknown SKUs and test codes price as zero; an empty
// match list yields an all-zero summary.
func (a *Aggregator) Price(ctx context.Context, matches []matching.LineItemMatch, testCodes []string) Summary {
	testsTotal := a.testsCost(ctx, testCodes)

	rows := make([]Row, 0, len(matches))
	totalMaterial := decimal.Zero
	for _, m := range matches {
		row := a.priceLine(ctx, m, testsTotal)
		rows = append(rows, row)
		totalMaterial = totalMaterial.Add(decimal.NewFromFloat(row.MaterialCost))
	}

	totalTests := decimal.Zero
	if len(rows) > 0 {
		totalTests = testsTotal
	}

	grand := totalMaterial.Add(totalTests)

	return Summary{
		Currency:          a.currency,
		Rows:              rows,
		TotalMaterialCost: totalMaterial.InexactFloat64(),
		TotalTestsCost:    totalTests.InexactFloat64(),
		GrandTotal:        grand.InexactFloat64(),
	}
}

func (a *Aggregator) priceLine(ctx context.Context, m matching.LineItemMatch, testsTotal decimal.Decimal) Row {
	unit := decimal.Zero
	sku := ""
	if m.SelectedSKU != nil {
		sku = m.SelectedSKU.SKU
		unit = decimal.NewFromFloat(a.prices.PriceForSKU(ctx, sku))
	}

	qty := decimal.NewFromFloat(m.QuantityM)
	material := unit.Mul(qty).Round(2)
	total := material.Add(testsTotal).Round(2)

	return Row{
		LineNo:       m.LineNo,
		SelectedSKU:  sku,
		QuantityM:    m.QuantityM,
		UnitPrice:    unit.InexactFloat64(),
		MaterialCost: material.InexactFloat64(),
		TestsCost:    testsTotal.InexactFloat64(),
		TotalCost:    total.InexactFloat64(),
	}
}

func (a *Aggregator) testsCost(ctx context.Context, codes []string) decimal.Decimal {
	if len(codes) == 0 {
		return decimal.Zero
	}

	prices := a.prices.PricesForTests(ctx, codes)
	total := decimal.Zero
	for _, code := range codes {
		total = total.Add(decimal.NewFromFloat(prices[code]))
	}
	return total.Round(2)
}

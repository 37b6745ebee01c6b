// Package catalog defines the product catalog model and the read-side
// contracts the matching and pricing stages depend on.
package catalog

import (
	"context"

	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
)

// Product is one catalog entry, identified by its SKU.
type Product struct {
	SKU      string     `json:"sku"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Specs    specs.Spec `json:"specs"`
}

// Inventory provides a snapshot of the product catalog.
type Inventory interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// PriceBook looks up unit and test prices. Unknown keys price as zero; a
// missing price is "unpriced", not an error, so implementations degrade
// instead of failing.
type PriceBook interface {
	PriceForSKU(ctx context.Context, sku string) float64
	PricesForTests(ctx context.Context, codes []string) map[string]float64
}

// Package rfp holds the tender (RFP) domain model and its storage contract.
package rfp

import (
	"context"
	"time"

	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
)

// LineItem is one required supply position inside an RFP. Line numbers are
// unique within their RFP.
type LineItem struct {
	LineNo      int        `json:"line_no"`
	Description string     `json:"description"`
	QuantityM   float64    `json:"quantity_m"`
	Required    specs.Spec `json:"required_specs"`
}

// RFP is a stored tender record. ExternalID is globally unique and serves as
// the idempotency key for re-ingestion.
type RFP struct {
	ExternalID string     `json:"external_id"`
	Title      string     `json:"title"`
	SourceURL  string     `json:"source_url"`
	DueDate    time.Time  `json:"due_date"`
	LineItems  []LineItem `json:"line_items"`
	Tests      []string   `json:"tests"`
}

// Store persists and retrieves RFPs.
type Store interface {
	// FindByExternalID returns the stored RFP, or nil when the id is unknown.
	FindByExternalID(ctx context.Context, externalID string) (*RFP, error)

	// FindDueWithin returns RFPs from the given source URLs whose due date
	// falls within the next `months` months (30-day months).
	FindDueWithin(ctx context.Context, urls []string, months int) ([]*RFP, error)

	// Save stores the RFP with its line items and tests in one transaction.
	// It reports false when the external id already exists; re-saving a
	// known id is a no-op, never a duplicate.
	Save(ctx context.Context, r *RFP) (bool, error)
}

// Package pipeline wires the stages together: batch ingestion of scraped
// tender listings, and the end-to-end rank → match → price → draft run.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/document"
	"github.com/abhishekrajdhar/rfp-responder/internal/extract"
	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
	"github.com/abhishekrajdhar/rfp-responder/internal/scraper"
)

// Report counts the outcome of one ingestion batch.
type Report struct {
	Discovered int `json:"discovered"`
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
}

// Ingestor walks each discovered listing through
// fetch → text extraction → structured extraction → persistence.
// Listings degrade independently: one bad listing never aborts the batch.
type Ingestor struct {
	scraper   scraper.Scraper
	extractor *document.Extractor
	bridge    *extract.Bridge
	store     rfp.Store
	logger    *zap.Logger
}

// NewIngestor creates an ingestion pipeline.
func NewIngestor(s scraper.Scraper, extractor *document.Extractor, bridge *extract.Bridge, store rfp.Store, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		scraper:   s,
		extractor: extractor,
		bridge:    bridge,
		store:     store,
		logger:    logger,
	}
}

// Ingest discovers listings on each source URL and persists the new ones.
// Discovery failures for one URL are logged and the batch continues.
func (i *Ingestor) Ingest(ctx context.Context, urls []string) Report {
	var report Report

	for _, url := range urls {
		listings, err := i.scraper.ListTenders(ctx, url)
		if err != nil {
			i.logger.Warn("listing discovery failed", zap.String("url", url), zap.Error(err))
			continue
		}

		report.Discovered += len(listings)

		for _, listing := range listings {
			processed, err := i.ingestListing(ctx, url, listing)
			if err != nil {
				i.logger.Warn("listing ingestion failed",
					zap.String("url", url),
					zap.String("title", listing.Title),
					zap.Error(err),
				)
				report.Skipped++
				continue
			}
			if processed {
				report.Processed++
			} else {
				report.Skipped++
			}
		}
	}

	i.logger.Info("ingestion batch finished",
		zap.Int("discovered", report.Discovered),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
	)

	return report
}

// ingestListing runs one listing through the pipeline. It reports false when
// the listing was skipped (already known, or no structured data).
func (i *Ingestor) ingestListing(ctx context.Context, sourceURL string, listing scraper.Listing) (bool, error) {
	externalID := ExternalID(sourceURL, listing.Title)

	// Idempotency gate: a known external id means no re-fetch and no
	// re-parse. This is the sole duplicate-prevention mechanism.
	existing, err := i.store.FindByExternalID(ctx, externalID)
	if err != nil {
		return false, fmt.Errorf("idempotency check: %w", err)
	}
	if existing != nil {
		i.logger.Debug("listing already ingested",
			zap.String("external_id", externalID),
			zap.String("title", listing.Title),
		)
		return false, nil
	}

	text := i.fetchText(ctx, listing)

	data, reason := i.bridge.Extract(ctx, listing.Title, text)
	if data == nil {
		i.logger.Info("skipping listing without structured data",
			zap.String("external_id", externalID),
			zap.String("title", listing.Title),
			zap.String("reason", string(reason)),
		)
		return false, nil
	}

	record := data.ToRFP(externalID, listing.Title, sourceURL)

	inserted, err := i.store.Save(ctx, record)
	if err != nil {
		return false, fmt.Errorf("persisting rfp %s: %w", externalID, err)
	}
	if !inserted {
		// A concurrent run got there first; the uniqueness constraint keeps
		// this a skip, not a duplicate.
		return false, nil
	}

	i.logger.Info("ingested rfp",
		zap.String("external_id", externalID),
		zap.String("title", listing.Title),
		zap.Int("line_items", len(record.LineItems)),
		zap.Int("tests", len(record.Tests)),
	)
	return true, nil
}

// fetchText downloads the attached document and extracts its text. Every
// failure degrades to empty text; the extraction bridge still sees the title.
func (i *Ingestor) fetchText(ctx context.Context, listing scraper.Listing) string {
	if listing.DocumentURL == "" {
		return ""
	}

	path, err := i.scraper.Fetch(ctx, listing.DocumentURL)
	if err != nil {
		i.logger.Warn("document fetch failed",
			zap.String("document_url", listing.DocumentURL),
			zap.Error(err),
		)
		return ""
	}

	return i.extractor.Extract(path)
}

// ExternalID derives the stable idempotency key for a scraped listing.
func ExternalID(sourceURL, title string) string {
	sum := sha256.Sum256([]byte(sourceURL + "|" + title))
	return fmt.Sprintf("RFP-%x", sum[:6])
}

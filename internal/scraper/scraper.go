// Package scraper drives a headless browser against tender portals to
// discover listings, and downloads their attached documents. Portals often
// gate the listing table behind a simple CAPTCHA; the scraper attempts to
// solve it and proceeds best-effort against whatever content loaded when it
// cannot.
package scraper

import "context"

// Listing is one discovered tender entry. DocumentURL is empty when the row
// carried no downloadable attachment.
type Listing struct {
	Title       string
	DocumentURL string
}

// Scraper lists tender entries from a source URL and fetches their documents.
type Scraper interface {
	// ListTenders discovers candidate tender entries on the given page.
	ListTenders(ctx context.Context, url string) ([]Listing, error)

	// Fetch downloads the document and returns its local path. Failures are
	// expected flow for flaky portals; callers degrade to empty text.
	Fetch(ctx context.Context, documentURL string) (string, error)
}

package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// CaptchaSolver recognizes simple alphanumeric CAPTCHAs from a PNG image.
type CaptchaSolver interface {
	SolveCaptcha(imgPNG []byte) string
}

// Options configures the portal scraper.
type Options struct {
	// DownloadDir receives fetched documents.
	DownloadDir string
	// PageLoadWait gives portal JS time to render the listing table.
	PageLoadWait time.Duration
	// FetchTimeout bounds a single document download.
	FetchTimeout time.Duration
}

// PortalScraper scrapes tender portals with headless Chrome.
type PortalScraper struct {
	opts   Options
	solver CaptchaSolver
	client *http.Client
	logger *zap.Logger
}

// NewPortal creates a portal scraper.
func NewPortal(opts Options, solver CaptchaSolver, logger *zap.Logger) (*PortalScraper, error) {
	if opts.DownloadDir == "" {
		opts.DownloadDir = "tmp_downloads"
	}
	if opts.PageLoadWait <= 0 {
		opts.PageLoadWait = 3 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}

	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download dir: %w", err)
	}

	return &PortalScraper{
		opts:   opts,
		solver: solver,
		client: &http.Client{Timeout: opts.FetchTimeout},
		logger: logger,
	}, nil
}

// newBrowserContext creates a fresh chromedp context: one browser, one tab.
func (s *PortalScraper) newBrowserContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// ListTenders navigates to the portal, handles a CAPTCHA gate when present,
// and extracts the listing table rows.
func (s *PortalScraper) ListTenders(ctx context.Context, url string) ([]Listing, error) {
	browserCtx, cancel := s.newBrowserContext(ctx)
	defer cancel()

	s.logger.Info("navigating to portal", zap.String("url", url))

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.opts.PageLoadWait),
	)
	if err != nil {
		return nil, fmt.Errorf("portal navigation failed: %w", err)
	}

	if s.handleCaptcha(browserCtx) {
		s.logger.Info("captcha submitted, waiting for listings", zap.String("url", url))
		// Best effort: extraction below runs against whatever loaded.
		_ = chromedp.Run(browserCtx, chromedp.Sleep(s.opts.PageLoadWait))
	}

	listings, err := s.extractListings(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("listing extraction failed: %w", err)
	}

	s.logger.Info("discovered listings", zap.String("url", url), zap.Int("count", len(listings)))
	return listings, nil
}

// handleCaptcha detects the portal CAPTCHA gate, OCRs the challenge image and
// submits the solution. It reports whether a captcha was found and submitted;
// solving failures are logged and swallowed.
func (s *PortalScraper) handleCaptcha(ctx context.Context) bool {
	if s.solver == nil {
		return false
	}

	var present bool
	err := chromedp.Run(ctx, chromedp.Evaluate(
		`!!(document.querySelector('#captchaImage') && document.querySelector('#captchaText') && document.querySelector('#Submit'))`,
		&present,
	))
	if err != nil || !present {
		return false
	}

	s.logger.Info("captcha gate detected, attempting to solve")

	var shot []byte
	if err := chromedp.Run(ctx, chromedp.Screenshot("#captchaImage", &shot, chromedp.NodeVisible)); err != nil {
		s.logger.Warn("captcha screenshot failed", zap.Error(err))
		return false
	}

	solution := s.solver.SolveCaptcha(shot)
	if solution == "" {
		s.logger.Warn("captcha unsolved, proceeding without it")
		return false
	}

	s.logger.Debug("captcha solved", zap.String("solution", solution))

	err = chromedp.Run(ctx,
		chromedp.Clear("#captchaText"),
		chromedp.SendKeys("#captchaText", solution),
		chromedp.Click("#Submit"),
	)
	if err != nil {
		s.logger.Warn("captcha submission failed", zap.Error(err))
		return false
	}

	return true
}

// extractListings pulls (title, document link) pairs out of the results
// table. Portals vary; rows with fewer than four columns are navigation
// chrome, not tenders.
func (s *PortalScraper) extractListings(ctx context.Context) ([]Listing, error) {
	type row struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	var rows []row

	err := chromedp.Run(ctx, chromedp.Evaluate(`
		(function() {
			var results = [];
			var tables = document.querySelectorAll('table.list_table');
			var table = tables.length ? tables[tables.length - 1] : document.querySelector('table');
			if (!table) return results;

			table.querySelectorAll('tr').forEach(function(tr) {
				var cols = tr.querySelectorAll('td');
				if (cols.length < 4) return;

				var title = cols[1].innerText.trim();
				if (!title || title.indexOf('Title') !== -1) return;

				var url = '';
				var links = cols[cols.length - 1].querySelectorAll('a');
				if (links.length) url = links[0].href;
				if (!url) {
					for (var i = 0; i < cols.length && !url; i++) {
						cols[i].querySelectorAll('a').forEach(function(a) {
							if (!url && (a.title || '').indexOf('Download') !== -1) url = a.href;
						});
					}
				}

				results.push({title: title, url: url});
			});
			return results;
		})()
	`, &rows))
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, Listing{Title: r.Title, DocumentURL: r.URL})
	}
	return listings, nil
}

// Fetch downloads the document with a bounded request and returns its local
// path.
func (s *PortalScraper) Fetch(ctx context.Context, documentURL string) (string, error) {
	name := documentURL
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	if name == "" {
		name = "document"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	path := filepath.Join(s.opts.DownloadDir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", documentURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %d", documentURL, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}

// compile-time check that the portal scraper satisfies the contract.
var _ Scraper = (*PortalScraper)(nil)

package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/catalogsync/internal/config"
	"github.com/IshaanNene/catalogsync/internal/types"
)

// BrowserFetcher implements Fetcher using a headless Chromium via Rod.
// Pages are opened with stealth patches so the site serves its regular markup.
type BrowserFetcher struct {
	browser   *rod.Browser
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewBrowserFetcher launches a headless browser and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	if cfg.Fetcher.TLSInsecure {
		if err := browser.IgnoreCertErrors(true); err != nil {
			return nil, fmt.Errorf("ignore cert errors: %w", err)
		}
	}

	bf := &BrowserFetcher{
		browser:   browser,
		timeout:   cfg.Fetcher.RequestTimeout,
		userAgent: cfg.Fetcher.UserAgent,
		logger:    logger.With("component", "browser_fetcher"),
	}
	bf.logger.Info("browser fetcher ready")
	return bf, nil
}

// Fetch navigates to the request URL and returns the rendered HTML.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()

	page, err := stealth.Page(bf.browser)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: fmt.Errorf("stealth page: %w", err)}
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(bf.timeout)

	if bf.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bf.userAgent}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", req.URLString(), "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	finalURL := req.URLString()
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return types.NewBrowserResponse(req, []byte(html), finalURL, duration), nil
}

// Close shuts down the browser.
func (bf *BrowserFetcher) Close() error {
	return bf.browser.Close()
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

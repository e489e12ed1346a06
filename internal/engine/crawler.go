// Package engine drives a category crawl: it walks the paginated listing,
// extracts each product page, and hands the records to the reconciler.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/catalogsync/internal/catalog"
	"github.com/IshaanNene/catalogsync/internal/config"
	"github.com/IshaanNene/catalogsync/internal/fetcher"
	"github.com/IshaanNene/catalogsync/internal/observability"
	"github.com/IshaanNene/catalogsync/internal/parser"
	"github.com/IshaanNene/catalogsync/internal/storage"
	"github.com/IshaanNene/catalogsync/internal/types"
)

// Crawler is the crawl orchestrator. Pages and products are processed one
// at a time in discovery order.
type Crawler struct {
	cfg        *config.Config
	fetcher    fetcher.Fetcher
	normalizer *parser.Normalizer
	extractor  *parser.Extractor
	reconciler *catalog.Reconciler
	dump       storage.Dump
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// New creates a Crawler that fetches through f and writes into store.
func New(cfg *config.Config, f fetcher.Fetcher, store catalog.Store, logger *slog.Logger) *Crawler {
	normalizer := parser.NewNormalizer(cfg.Site.BaseURL)
	return &Crawler{
		cfg:        cfg,
		fetcher:    f,
		normalizer: normalizer,
		extractor:  parser.NewExtractor(cfg.Selectors, normalizer, cfg.Site.DefaultCategoryName, logger),
		reconciler: catalog.NewReconciler(store, logger),
		dump:       storage.NopDump{},
		metrics:    observability.NewMetrics(nil, logger),
		logger:     logger.With("component", "crawler"),
	}
}

// SetDump sets the diagnostic dump sink.
func (c *Crawler) SetDump(d storage.Dump) {
	c.dump = d
}

// SetMetrics sets the metrics collector.
func (c *Crawler) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// Run crawls the category at categoryURL and reconciles every product found.
// A site-relative categoryURL is resolved against site.base_url.
// Listing fetch failures and storage failures abort the run; a failing
// product page is recorded in the report and skipped.
func (c *Crawler) Run(ctx context.Context, categoryURL string) (*Report, error) {
	categoryURL = strings.TrimSpace(categoryURL)
	if categoryURL == "" {
		return nil, types.ErrMissingInput
	}
	categoryURL = c.normalizer.Normalize(categoryURL)

	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	c.logger.Info("crawl starting", "run_id", report.RunID, "url", categoryURL)

	listing, err := c.CollectProductURLs(ctx, report.RunID, categoryURL)
	if err != nil {
		return report, err
	}
	report.Pages = listing.Pages
	report.ProductURLs = len(listing.URLs)

	var parent *catalog.Category
	if name := c.cfg.Crawl.ParentCategory; name != "" {
		parent, err = c.reconciler.EnsureCategory(ctx, name, nil)
		if err != nil {
			return report, fmt.Errorf("parent category %q: %w", name, err)
		}
	}

	category, err := c.reconciler.EnsureCategory(ctx, listing.Title, parent)
	if err != nil {
		return report, fmt.Errorf("category %q: %w", listing.Title, err)
	}
	report.Category = category.Name

	c.logger.Info("category resolved",
		"category", category.Name,
		"full_slug", category.FullSlug,
		"products", len(listing.URLs),
	)

	for i, productURL := range listing.URLs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rec, err := c.ParseProduct(ctx, productURL, category.Name)
		if err != nil {
			c.logger.Error("product skipped", "url", productURL, "error", err)
			report.Failed = append(report.Failed, types.ProductError{URL: productURL, Err: err})
			c.metrics.Product(observability.ResultFailed)
			continue
		}

		outcome, err := c.reconciler.ReconcileInto(ctx, rec, category)
		if err != nil {
			return report, fmt.Errorf("reconcile %s: %w", productURL, err)
		}

		switch outcome {
		case catalog.OutcomeCreated:
			report.Created++
			c.metrics.Product(observability.ResultCreated)
		case catalog.OutcomeUpdated:
			report.Updated++
			c.metrics.Product(observability.ResultUpdated)
		default:
			report.Skipped++
		}

		c.logger.Info("product saved",
			"n", i+1,
			"of", len(listing.URLs),
			"outcome", outcome,
			"name", rec.Name,
		)
	}

	c.logger.Info("crawl complete",
		"run_id", report.RunID,
		"category", report.Category,
		"pages", report.Pages,
		"created", report.Created,
		"updated", report.Updated,
		"failed", len(report.Failed),
	)
	return report, nil
}

// CollectProductURLs walks the listing from page 1 while the page offers a
// continuation link. The category title is read from the first page. With
// crawl.max_pages set, the walk stops at that page with a warning.
func (c *Crawler) CollectProductURLs(ctx context.Context, runID, categoryURL string) (*Listing, error) {
	listing := &Listing{}
	maxPages := c.cfg.Crawl.MaxPages

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := c.fetchListingPage(ctx, runID, categoryURL, page)
		if err != nil {
			return nil, err
		}
		listing.Pages = page

		if page == 1 {
			listing.Title = c.extractor.CategoryTitle(doc)
			c.logger.Info("category title", "title", listing.Title)
		}

		links := c.extractor.ProductLinks(doc)
		for _, link := range links {
			listing.URLs = append(listing.URLs, c.normalizer.Normalize(link))
		}
		c.logger.Info("listing page parsed", "page", page, "products", len(links))

		if !c.extractor.HasNextPage(doc) {
			break
		}
		if maxPages > 0 && page >= maxPages {
			c.logger.Warn("stopping pagination", "page", page, "max_pages", maxPages, "reason", types.ErrMaxPages)
			break
		}
	}

	return listing, nil
}

func (c *Crawler) fetchListingPage(ctx context.Context, runID, categoryURL string, page int) (*parser.Document, error) {
	req, err := types.NewRequestWithQuery(categoryURL, url.Values{
		c.cfg.Site.PageParam: {strconv.Itoa(page)},
	})
	if err != nil {
		return nil, err
	}
	req.Tag = "listing"

	c.logger.Info("fetching listing page", "page", page, "url", req.URLString())
	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("listing page %d: %w", page, err)
	}
	c.metrics.PagesFetched.Inc()
	c.metrics.ObserveFetch(req.Tag, len(resp.Body), resp.FetchDuration)

	if err := c.dump.Append(runID, req.Tag, page, resp.Body); err != nil {
		c.logger.Warn("dump failed", "page", page, "error", err)
	}

	doc, err := parser.NewDocument(resp.Body)
	if err != nil {
		return nil, &types.ParseError{URL: req.URLString(), Err: err}
	}
	return doc, nil
}

// ParseProduct fetches one product page and extracts its record, tagged
// with the given category name.
func (c *Crawler) ParseProduct(ctx context.Context, productURL, category string) (*types.ProductRecord, error) {
	req, err := types.NewRequest(productURL)
	if err != nil {
		return nil, err
	}
	req.Tag = "product"

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveFetch(req.Tag, len(resp.Body), resp.FetchDuration)

	doc, err := parser.NewDocument(resp.Body)
	if err != nil {
		return nil, &types.ParseError{URL: productURL, Err: err}
	}

	rec, err := c.extractor.Product(doc, productURL)
	if err != nil {
		return nil, err
	}
	rec.Category = category
	return rec, nil
}

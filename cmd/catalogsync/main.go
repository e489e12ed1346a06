package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/catalogsync/internal/config"
	"github.com/IshaanNene/catalogsync/internal/engine"
	"github.com/IshaanNene/catalogsync/internal/fetcher"
	"github.com/IshaanNene/catalogsync/internal/observability"
	"github.com/IshaanNene/catalogsync/internal/parser"
	"github.com/IshaanNene/catalogsync/internal/storage"
	"github.com/IshaanNene/catalogsync/internal/types"
)

var (
	cfgFile     string
	verbose     bool
	categoryURL string
	parentName  string
	maxPages    int
	storageType string
	dsn         string
	dumpType    string
	fetcherType string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "catalogsync",
		Short: "Synchronize a storefront category into a normalized catalog",
		Long: `catalogsync walks a category listing of the storefront, extracts every
product page and reconciles the results into a catalog store.

Products are matched across runs by the site's own product id: known
products get their price and availability refreshed, new ones are created
together with their brand, images and grouped attributes.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [category-url]",
		Short: "Crawl one category and reconcile its products",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCrawl,
	}

	cmd.Flags().StringVarP(&categoryURL, "category-url", "u", "", "category listing URL")
	cmd.Flags().StringVarP(&parentName, "parent", "p", "", "place the category under this parent category")
	cmd.Flags().IntVar(&maxPages, "max-pages", -1, "maximum listing pages (0 = unbounded, -1 = config default)")
	cmd.Flags().StringVar(&storageType, "storage", "", "catalog store: memory, postgres, mongodb")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string")
	cmd.Flags().StringVar(&dumpType, "dump", "", "diagnostic dump sink: none, file, badger")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page fetcher: http, browser")

	return cmd
}

// runCrawl executes the crawl command.
func runCrawl(cmd *cobra.Command, args []string) error {
	if categoryURL == "" && len(args) == 1 {
		categoryURL = args[0]
	}
	if strings.TrimSpace(categoryURL) == "" {
		return fmt.Errorf("%w: pass --category-url", types.ErrMissingInput)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	categoryURL, err = resolveCategoryURL(cfg, categoryURL)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("storage close error", "error", err)
		}
	}()

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	dump, err := storage.NewDump(cfg.Dump, logger)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	defer dump.Close()

	crawler := engine.New(cfg, f, store, logger)
	crawler.SetDump(dump)

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(nil, logger)
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
		crawler.SetMetrics(metrics)
	}

	logger.Info("starting crawl",
		"url", categoryURL,
		"storage", store.Name(),
		"fetcher", f.Type(),
		"dump", dump.Name(),
		"max_pages", cfg.Crawl.MaxPages,
	)

	report, err := crawler.Run(ctx, categoryURL)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("crawl interrupted")
		}
		return fmt.Errorf("crawl failed: %w", err)
	}
	return nil
}

// resolveCategoryURL makes a site-relative category URL absolute against
// site.base_url and validates the result.
func resolveCategoryURL(cfg *config.Config, raw string) (string, error) {
	resolved := parser.NewNormalizer(cfg.Site.BaseURL).Normalize(strings.TrimSpace(raw))
	if err := config.ValidateURL(resolved); err != nil {
		return "", fmt.Errorf("invalid category URL %q: %w", raw, err)
	}
	return resolved, nil
}

func printReport(r *engine.Report) {
	fmt.Printf("\nCrawl %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Printf("   Category:  %s\n", r.Category)
	fmt.Printf("   Pages:     %d\n", r.Pages)
	fmt.Printf("   Products:  %d found, %d stored (%d created, %d updated), %d failed\n",
		r.ProductURLs, r.Processed(), r.Created, r.Updated, len(r.Failed))
	for _, f := range r.Failed {
		fmt.Printf("     - %s: %v\n", f.URL, f.Err)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("catalogsync %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Site:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Site.BaseURL)
			fmt.Printf("  Page Param:        %s\n", cfg.Site.PageParam)
			fmt.Printf("  Default Category:  %s\n", cfg.Site.DefaultCategoryName)
			fmt.Printf("\nCrawl:\n")
			fmt.Printf("  Max Pages:         %d\n", cfg.Crawl.MaxPages)
			fmt.Printf("  Parent Category:   %s\n", cfg.Crawl.ParentCategory)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Database:          %s\n", cfg.Storage.Database)
			fmt.Printf("  Auto Schema:       %v\n", cfg.Storage.AutoSchema)
			fmt.Printf("\nDump:\n")
			fmt.Printf("  Type:              %s\n", cfg.Dump.Type)
			fmt.Printf("  Path:              %s\n", cfg.Dump.Path)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if parentName != "" {
		cfg.Crawl.ParentCategory = parentName
	}
	if maxPages >= 0 {
		cfg.Crawl.MaxPages = maxPages
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if dumpType != "" {
		cfg.Dump.Type = strings.ToLower(dumpType)
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
}

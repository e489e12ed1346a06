package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if cfg.Site.PageParam == "" {
		return fmt.Errorf("site.page_param must not be empty")
	}
	if cfg.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0, got %d", cfg.Crawl.MaxPages)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Selectors.ProductLink == "" || cfg.Selectors.Title == "" {
		return fmt.Errorf("selectors.product_link and selectors.title are required")
	}

	switch cfg.Storage.Type {
	case "memory":
	case "postgres", "mongodb":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for storage.type %q", cfg.Storage.Type)
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: memory, postgres, mongodb)", cfg.Storage.Type)
	}

	validDumpTypes := map[string]bool{
		"none": true, "file": true, "badger": true,
	}
	if !validDumpTypes[cfg.Dump.Type] {
		return fmt.Errorf("dump.type %q is not supported (valid: none, file, badger)", cfg.Dump.Type)
	}
	if cfg.Dump.Type != "none" && cfg.Dump.Path == "" {
		return fmt.Errorf("dump.path is required when dump.type is %q", cfg.Dump.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

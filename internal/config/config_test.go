package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.Site.BaseURL = "/catalog" }},
		{"negative max pages", func(c *Config) { c.Crawl.MaxPages = -1 }},
		{"unknown fetcher", func(c *Config) { c.Fetcher.Type = "curl" }},
		{"zero timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = "postgres" }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "mysql" }},
		{"unknown dump", func(c *Config) { c.Dump.Type = "s3" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogsync.yaml")
	content := `
site:
  base_url: https://example.com
crawl:
  max_pages: 3
fetcher:
  request_timeout: 5s
storage:
  type: postgres
  dsn: postgres://localhost/catalog
selectors:
  next_page: ".pager .forward"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Site.BaseURL != "https://example.com" {
		t.Errorf("expected base url override, got %q", cfg.Site.BaseURL)
	}
	if cfg.Crawl.MaxPages != 3 {
		t.Errorf("expected max_pages 3, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Fetcher.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Fetcher.RequestTimeout)
	}
	if cfg.Selectors.NextPage != ".pager .forward" {
		t.Errorf("expected next_page override, got %q", cfg.Selectors.NextPage)
	}
	// Untouched values keep their defaults.
	if cfg.Selectors.Title != "h1.product-title" {
		t.Errorf("expected default title selector, got %q", cfg.Selectors.Title)
	}
	if cfg.Site.PageParam != "p" {
		t.Errorf("expected default page param, got %q", cfg.Site.PageParam)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CATALOGSYNC_STORAGE_TYPE", "mongodb")
	t.Setenv("CATALOGSYNC_STORAGE_DSN", "mongodb://localhost:27017")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Type != "mongodb" {
		t.Errorf("expected env override, got %q", cfg.Storage.Type)
	}
	if cfg.Storage.DSN != "mongodb://localhost:27017" {
		t.Errorf("expected env dsn, got %q", cfg.Storage.DSN)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CATALOGSYNC_CRAWL_PARENT_CATEGORY=Компьютеры\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CATALOGSYNC_CRAWL_PARENT_CATEGORY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Crawl.ParentCategory != "Компьютеры" {
		t.Errorf("expected parent category from .env, got %q", cfg.Crawl.ParentCategory)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file and environment on top of the defaults.
// Priority (highest to lowest): env vars > .env files > config file > defaults.
// CLI flags are applied by the caller after Load returns.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("CATALOGSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("catalogsync")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".catalogsync"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is only an error when one was explicitly requested.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Variables already present in the environment are never overridden.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// setDefaults registers default values in viper so env overrides bind to them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("site.base_url", cfg.Site.BaseURL)
	v.SetDefault("site.page_param", cfg.Site.PageParam)
	v.SetDefault("site.default_category_name", cfg.Site.DefaultCategoryName)

	v.SetDefault("crawl.max_pages", cfg.Crawl.MaxPages)
	v.SetDefault("crawl.parent_category", cfg.Crawl.ParentCategory)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)

	v.SetDefault("selectors.category_title", cfg.Selectors.CategoryTitle)
	v.SetDefault("selectors.product_link", cfg.Selectors.ProductLink)
	v.SetDefault("selectors.next_page", cfg.Selectors.NextPage)
	v.SetDefault("selectors.external_id_xpath", cfg.Selectors.ExternalIDXPath)
	v.SetDefault("selectors.title", cfg.Selectors.Title)
	v.SetDefault("selectors.char_row", cfg.Selectors.CharRow)
	v.SetDefault("selectors.brand_label", cfg.Selectors.BrandLabel)
	v.SetDefault("selectors.bold", cfg.Selectors.Bold)
	v.SetDefault("selectors.price_new", cfg.Selectors.PriceNew)
	v.SetDefault("selectors.price_old", cfg.Selectors.PriceOld)
	v.SetDefault("selectors.description", cfg.Selectors.Description)
	v.SetDefault("selectors.not_available", cfg.Selectors.NotAvailable)
	v.SetDefault("selectors.gallery_image", cfg.Selectors.GalleryImage)
	v.SetDefault("selectors.attribute_group", cfg.Selectors.AttributeGroup)
	v.SetDefault("selectors.attribute_row", cfg.Selectors.AttributeRow)
	v.SetDefault("selectors.attribute_name", cfg.Selectors.AttributeName)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.auto_schema", cfg.Storage.AutoSchema)

	v.SetDefault("dump.type", cfg.Dump.Type)
	v.SetDefault("dump.path", cfg.Dump.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for catalogsync.
type Config struct {
	Site      SiteConfig     `mapstructure:"site"      yaml:"site"`
	Crawl     CrawlConfig    `mapstructure:"crawl"     yaml:"crawl"`
	Fetcher   FetcherConfig  `mapstructure:"fetcher"   yaml:"fetcher"`
	Selectors SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
	Storage   StorageConfig  `mapstructure:"storage"   yaml:"storage"`
	Dump      DumpConfig     `mapstructure:"dump"      yaml:"dump"`
	Logging   LoggingConfig  `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig  `mapstructure:"metrics"   yaml:"metrics"`
}

// SiteConfig describes the source site.
type SiteConfig struct {
	BaseURL             string `mapstructure:"base_url"              yaml:"base_url"`
	PageParam           string `mapstructure:"page_param"            yaml:"page_param"`
	DefaultCategoryName string `mapstructure:"default_category_name" yaml:"default_category_name"`
}

// CrawlConfig controls the pagination loop.
type CrawlConfig struct {
	// MaxPages caps the number of listing pages fetched. 0 means unbounded.
	MaxPages       int    `mapstructure:"max_pages"       yaml:"max_pages"`
	ParentCategory string `mapstructure:"parent_category" yaml:"parent_category"`
}

// FetcherConfig controls the page fetcher. MaxBodySize caps the bytes read
// off the wire, before any Content-Encoding is undone; larger bodies fail
// the fetch.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"             yaml:"type"`
	UserAgent       string        `mapstructure:"user_agent"       yaml:"user_agent"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"    yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"    yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"     yaml:"tls_insecure"`
}

// SelectorConfig holds the document queries used by the extractor.
type SelectorConfig struct {
	CategoryTitle   string   `mapstructure:"category_title"   yaml:"category_title"`
	ProductLink     string   `mapstructure:"product_link"     yaml:"product_link"`
	NextPage        string   `mapstructure:"next_page"        yaml:"next_page"`
	ExternalIDXPath string   `mapstructure:"external_id_xpath" yaml:"external_id_xpath"`
	Title           string   `mapstructure:"title"            yaml:"title"`
	CharRow         string   `mapstructure:"char_row"         yaml:"char_row"`
	BrandLabel      string   `mapstructure:"brand_label"      yaml:"brand_label"`
	Bold            string   `mapstructure:"bold"             yaml:"bold"`
	PriceNew        string   `mapstructure:"price_new"        yaml:"price_new"`
	PriceOld        string   `mapstructure:"price_old"        yaml:"price_old"`
	Description     string   `mapstructure:"description"      yaml:"description"`
	NotAvailable    string   `mapstructure:"not_available"    yaml:"not_available"`
	GalleryImage    string   `mapstructure:"gallery_image"    yaml:"gallery_image"`
	AttributeGroup  string   `mapstructure:"attribute_group"  yaml:"attribute_group"`
	AttributeRow    string   `mapstructure:"attribute_row"    yaml:"attribute_row"`
	AttributeName   []string `mapstructure:"attribute_name"   yaml:"attribute_name"`
}

// StorageConfig selects the catalog store backend.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"`
	DSN        string `mapstructure:"dsn"         yaml:"dsn"`
	Database   string `mapstructure:"database"    yaml:"database"`
	AutoSchema bool   `mapstructure:"auto_schema" yaml:"auto_schema"`
}

// DumpConfig controls the diagnostic dump of fetched listing pages.
type DumpConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultSelectors returns the queries matching the 2cent.ru markup.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		CategoryTitle:   "h1",
		ProductLink:     ".item-card__title",
		NextPage:        ".pagination .next",
		ExternalIDXPath: `//input[@name="offer"]`,
		Title:           "h1.product-title",
		CharRow:         ".product-chars li",
		BrandLabel:      "Производитель",
		Bold:            ".fw-bold",
		PriceNew:        ".rs-price-new",
		PriceOld:        ".rs-price-old",
		Description:     "#tab-description",
		NotAvailable:    ".item-card__not-available",
		GalleryImage:    ".product-gallery-top img",
		AttributeGroup:  "#tab-property > div",
		AttributeRow:    "ul.product-chars li",
		AttributeName:   []string{".col-sm-7", ".col-6"},
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:             "https://2cent.ru",
			PageParam:           "p",
			DefaultCategoryName: "Без названия",
		},
		Crawl: CrawlConfig{
			MaxPages: 500,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			UserAgent:       "Mozilla/5.0 (compatible; Bot/1.0)",
			RequestTimeout:  30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
		},
		Selectors: DefaultSelectors(),
		Storage: StorageConfig{
			Type:       "memory",
			Database:   "catalog",
			AutoSchema: true,
		},
		Dump: DumpConfig{
			Type: "none",
			Path: "./dump",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

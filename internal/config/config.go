// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures every knob that influences a run. Values come from an
// optional config file, a .env file, and SCRAPER_* environment variables.
// The struct is immutable after Load; correctness-sensitive values are
// range-checked and rejected rather than clamped.
type Config struct {
	Google  GoogleConfig  `mapstructure:"google"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Render  RenderConfig  `mapstructure:"render"`
	Ops     OpsConfig     `mapstructure:"ops"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GoogleConfig holds search API credentials and rate/retry policy.
type GoogleConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	CXID        string        `mapstructure:"cx_id"`
	MaxRetries  int           `mapstructure:"max_retries"`
	MinInterval time.Duration `mapstructure:"min_interval"`
}

// ScraperConfig governs the worker pool, crawl planning, and scoring.
type ScraperConfig struct {
	DomainsOnly          bool          `mapstructure:"domains_only"`
	Workers              int           `mapstructure:"workers"`
	DomainScoreThreshold int           `mapstructure:"domain_score_threshold"`
	MaxFallbackPages     int           `mapstructure:"max_fallback_pages"`
	MaxURLsPerSitemap    int           `mapstructure:"max_urls_per_sitemap"`
	MinCrawlDelay        time.Duration `mapstructure:"min_crawl_delay"`
	MaxCrawlDelay        time.Duration `mapstructure:"max_crawl_delay"`
	PriorityPathParts    []string      `mapstructure:"priority_path_parts"`
	BlockedDomains       []string      `mapstructure:"blocked_domains"`
	SaveDomainOnly       bool          `mapstructure:"save_domain_only"`
	MaxPageText          int           `mapstructure:"max_page_text"`
}

// HTTPConfig configures the static fetcher transport.
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	MaxURLLength int           `mapstructure:"max_url_length"`
	InsecureSSL  bool          `mapstructure:"insecure_ssl"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// RenderConfig configures the headless rendering fallback.
type RenderConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxParallel int           `mapstructure:"max_parallel"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"`
	DomainQPS   float64       `mapstructure:"domain_qps"`
}

// OpsConfig controls the optional metrics endpoint.
type OpsConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	Verbose     bool `mapstructure:"verbose"`
}

// defaultPriorityParts mirrors the externally tunable page-ranking policy.
// The values are data, not structure; override via configuration.
var defaultPriorityParts = []string{
	"contact", "about", "impress", "impressum", "kontakt",
	"privacy", "sales", "investor", "procurement", "suppliers",
}

// Load builds and validates a Config from the optional file at path, a
// .env file when present, and the environment.
func Load(path string) (Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse builds a Config without validating it, for callers that layer
// flag overrides on top before calling Validate themselves.
func Parse(path string) (Config, error) {
	// .env values become plain environment variables before viper reads them.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("google.max_retries", 5)
	v.SetDefault("google.min_interval", 800*time.Millisecond)
	v.SetDefault("scraper.domains_only", false)
	v.SetDefault("scraper.workers", 4)
	v.SetDefault("scraper.domain_score_threshold", 60)
	v.SetDefault("scraper.max_fallback_pages", 12)
	v.SetDefault("scraper.max_urls_per_sitemap", 10_000)
	v.SetDefault("scraper.min_crawl_delay", 500*time.Millisecond)
	v.SetDefault("scraper.max_crawl_delay", 2*time.Second)
	v.SetDefault("scraper.priority_path_parts", defaultPriorityParts)
	v.SetDefault("scraper.save_domain_only", false)
	v.SetDefault("scraper.max_page_text", 20_000)
	v.SetDefault("http.timeout", 20*time.Second)
	v.SetDefault("http.max_redirects", 5)
	v.SetDefault("http.max_url_length", 2000)
	v.SetDefault("http.insecure_ssl", false)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("render.enabled", false)
	v.SetDefault("render.max_parallel", 1)
	v.SetDefault("render.nav_timeout", 25*time.Second)
	v.SetDefault("render.domain_qps", 1.0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required credentials and range limits. The first
// violation aborts the run before any work starts.
func (c Config) Validate() error {
	// A domains-only run never calls the search API, so credentials are
	// not needed for it.
	if !c.Scraper.DomainsOnly {
		if c.Google.APIKey == "" {
			return fmt.Errorf("google.api_key is required")
		}
		if c.Google.CXID == "" {
			return fmt.Errorf("google.cx_id is required")
		}
	}
	if c.Google.MaxRetries < 1 || c.Google.MaxRetries > 10 {
		return fmt.Errorf("google.max_retries must be in [1,10], got %d", c.Google.MaxRetries)
	}
	if c.Google.MinInterval < 100*time.Millisecond || c.Google.MinInterval > 10*time.Second {
		return fmt.Errorf("google.min_interval must be in [100ms,10s], got %s", c.Google.MinInterval)
	}
	if c.Scraper.Workers < 1 || c.Scraper.Workers > 64 {
		return fmt.Errorf("scraper.workers must be in [1,64], got %d", c.Scraper.Workers)
	}
	if c.Scraper.DomainScoreThreshold < 0 || c.Scraper.DomainScoreThreshold > 100 {
		return fmt.Errorf("scraper.domain_score_threshold must be in [0,100], got %d", c.Scraper.DomainScoreThreshold)
	}
	if c.Scraper.MaxFallbackPages < 1 || c.Scraper.MaxFallbackPages > 500 {
		return fmt.Errorf("scraper.max_fallback_pages must be in [1,500], got %d", c.Scraper.MaxFallbackPages)
	}
	if c.Scraper.MaxURLsPerSitemap < 1 || c.Scraper.MaxURLsPerSitemap > 100_000 {
		return fmt.Errorf("scraper.max_urls_per_sitemap must be in [1,100000], got %d", c.Scraper.MaxURLsPerSitemap)
	}
	if c.Scraper.MinCrawlDelay < 0 || c.Scraper.MaxCrawlDelay > time.Minute {
		return fmt.Errorf("crawl delays must be in [0,1m]")
	}
	if c.Scraper.MinCrawlDelay > c.Scraper.MaxCrawlDelay {
		return fmt.Errorf("scraper.min_crawl_delay %s exceeds max_crawl_delay %s",
			c.Scraper.MinCrawlDelay, c.Scraper.MaxCrawlDelay)
	}
	if len(c.Scraper.PriorityPathParts) == 0 {
		return fmt.Errorf("scraper.priority_path_parts must not be empty")
	}
	if c.Scraper.MaxPageText < 1 {
		return fmt.Errorf("scraper.max_page_text must be > 0")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.MaxRedirects < 0 || c.HTTP.MaxRedirects > 100 {
		return fmt.Errorf("http.max_redirects must be in [0,100], got %d", c.HTTP.MaxRedirects)
	}
	if c.HTTP.MaxURLLength < 100 || c.HTTP.MaxURLLength > 10_000 {
		return fmt.Errorf("http.max_url_length must be in [100,10000], got %d", c.HTTP.MaxURLLength)
	}
	if c.Render.Enabled {
		if c.Render.MaxParallel < 1 {
			return fmt.Errorf("render.max_parallel must be > 0 when rendering is enabled")
		}
		if c.Render.NavTimeout <= 0 {
			return fmt.Errorf("render.nav_timeout must be > 0 when rendering is enabled")
		}
		if c.Render.DomainQPS < 0 {
			return fmt.Errorf("render.domain_qps must be >= 0")
		}
	}
	return nil
}

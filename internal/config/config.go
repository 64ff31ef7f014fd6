package config

import (
	"time"

	"github.com/IshaanNene/ghcrawler/internal/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for a crawl run.
type Config struct {
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
	Proxies  []string `mapstructure:"proxies"  yaml:"proxies"`
	Type     string   `mapstructure:"type"     yaml:"type"`

	// ResultType is the canonical form of Type, set by Validate.
	ResultType types.ResultType `mapstructure:"-" yaml:"-"`

	GitHub    GitHubConfig   `mapstructure:"github"    yaml:"github"`
	Fetcher   FetcherConfig  `mapstructure:"fetcher"   yaml:"fetcher"`
	Selectors SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
	Storage   StorageConfig  `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig  `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig  `mapstructure:"metrics"   yaml:"metrics"`
}

// GitHubConfig points the crawler at the code-hosting site.
type GitHubConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"` // 0 = no timeout
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// ParseRule defines a single extraction rule.
type ParseRule struct {
	Name      string `mapstructure:"name"      yaml:"name"`
	Selector  string `mapstructure:"selector"  yaml:"selector"`
	Type      string `mapstructure:"type"      yaml:"type"` // xpath, css
	Attribute string `mapstructure:"attribute" yaml:"attribute"`

	// KeepEmpty returns empty values instead of dropping them, so the
	// caller can reject a matched element that carries nothing.
	KeepEmpty bool `mapstructure:"keep_empty" yaml:"keep_empty"`
}

// SelectorConfig holds the extraction rule for each result type and the
// repository language bar.
type SelectorConfig struct {
	Issues       ParseRule `mapstructure:"issues"       yaml:"issues"`
	Repositories ParseRule `mapstructure:"repositories" yaml:"repositories"`
	Wikis        ParseRule `mapstructure:"wikis"        yaml:"wikis"`
	Languages    ParseRule `mapstructure:"languages"    yaml:"languages"`
}

// SearchRule returns the search-page rule for a result type.
func (s SelectorConfig) SearchRule(rt types.ResultType) (ParseRule, bool) {
	switch rt {
	case types.Issues:
		return s.Issues, true
	case types.Repositories:
		return s.Repositories, true
	case types.Wikis:
		return s.Wikis, true
	default:
		return ParseRule{}, false
	}
}

// StorageConfig controls output.
type StorageConfig struct {
	Format    string      `mapstructure:"format"     yaml:"format"`
	OutputDir string      `mapstructure:"output_dir" yaml:"output_dir"`
	Prefix    string      `mapstructure:"prefix"     yaml:"prefix"`
	Mongo     MongoConfig `mapstructure:"mongo"      yaml:"mongo"`
}

// MongoConfig enables the MongoDB sink when URI is set.
type MongoConfig struct {
	URI        string        `mapstructure:"uri"        yaml:"uri"`
	Database   string        `mapstructure:"database"   yaml:"database"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// DefaultConfig returns a Config with the defaults used by the crawler.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL: "https://github.com",
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
		},
		Selectors: SelectorConfig{
			Issues: ParseRule{
				Name:      "issues",
				Type:      "xpath",
				Selector:  `//div[@class="f4 text-normal markdown-title"]//*[@href]`,
				Attribute: "href",
			},
			Repositories: ParseRule{
				Name:      "repositories",
				Type:      "xpath",
				Selector:  `//a[@class="v-align-middle"]`,
				Attribute: "href",
			},
			Wikis: ParseRule{
				Name:      "wikis",
				Type:      "xpath",
				Selector:  `//div[@class="f4 text-normal"]//*[@href]`,
				Attribute: "href",
			},
			Languages: ParseRule{
				Name:      "language_stats",
				Type:      "xpath",
				Selector:  `//div[@class="mb-2"]//*[@aria-label]`,
				Attribute: "aria-label",
				KeepEmpty: true,
			},
		},
		Storage: StorageConfig{
			Format:    "json",
			OutputDir: ".",
			Prefix:    "output_github_crawler_",
			Mongo: MongoConfig{
				Database:   "ghcrawler",
				Collection: "results",
				Timeout:    10 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/IshaanNene/ghcrawler/internal/types"
)

// EnvPrefix is the prefix for environment overrides, e.g. GHCRAWLER_FETCHER_TIMEOUT.
const EnvPrefix = "GHCRAWLER"

// Load reads the input file at path on top of the defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// Any failure to read or decode the file is returned as *types.ConfigReadError.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, &types.ConfigReadError{Path: path, Err: fmt.Errorf("no input file given")}
	}

	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, &types.ConfigReadError{Path: path, Err: err}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, &types.ConfigReadError{Path: path, Err: fmt.Errorf("unmarshal: %w", err)}
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("keywords", []string{})
	v.SetDefault("proxies", []string{})
	v.SetDefault("type", "")

	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)

	setRuleDefaults(v, "selectors.issues", cfg.Selectors.Issues)
	setRuleDefaults(v, "selectors.repositories", cfg.Selectors.Repositories)
	setRuleDefaults(v, "selectors.wikis", cfg.Selectors.Wikis)
	setRuleDefaults(v, "selectors.languages", cfg.Selectors.Languages)

	v.SetDefault("storage.format", cfg.Storage.Format)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.prefix", cfg.Storage.Prefix)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)
	v.SetDefault("storage.mongo.timeout", cfg.Storage.Mongo.Timeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)
}

func setRuleDefaults(v *viper.Viper, key string, rule ParseRule) {
	v.SetDefault(key+".name", rule.Name)
	v.SetDefault(key+".type", rule.Type)
	v.SetDefault(key+".selector", rule.Selector)
	v.SetDefault(key+".attribute", rule.Attribute)
	v.SetDefault(key+".keep_empty", rule.KeepEmpty)
}

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/IshaanNene/ghcrawler/internal/types"
)

// Validate checks the configuration and normalizes Type into ResultType.
// Every failure is a *types.ConfigValidationError.
func Validate(cfg *Config) error {
	rt, err := types.ParseResultType(cfg.Type)
	if err != nil {
		return invalid("type", cfg.Type, err)
	}
	cfg.ResultType = rt

	for i, raw := range cfg.Proxies {
		if _, err := ParseProxyURL(raw); err != nil {
			return invalid(fmt.Sprintf("proxies[%d]", i), raw, err)
		}
	}

	if err := ValidateURL(cfg.GitHub.BaseURL); err != nil {
		return invalid("github.base_url", cfg.GitHub.BaseURL, err)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return invalid("fetcher.type", cfg.Fetcher.Type, errors.New("must be 'http' or 'browser'"))
	}
	if cfg.Fetcher.Timeout < 0 {
		return invalid("fetcher.timeout", cfg.Fetcher.Timeout, errors.New("must be >= 0"))
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return invalid("fetcher.max_body_size", cfg.Fetcher.MaxBodySize, errors.New("must be > 0"))
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return invalid("fetcher.max_redirects", cfg.Fetcher.MaxRedirects, errors.New("must be >= 0"))
	}

	rules := map[string]ParseRule{
		"selectors.issues":       cfg.Selectors.Issues,
		"selectors.repositories": cfg.Selectors.Repositories,
		"selectors.wikis":        cfg.Selectors.Wikis,
		"selectors.languages":    cfg.Selectors.Languages,
	}
	for field, rule := range rules {
		if rule.Selector == "" {
			return invalid(field+".selector", rule.Selector, errors.New("must not be empty"))
		}
		if rule.Type != "xpath" && rule.Type != "css" {
			return invalid(field+".type", rule.Type, errors.New("must be 'xpath' or 'css'"))
		}
	}

	validFormats := map[string]bool{"json": true, "jsonl": true, "csv": true}
	if !validFormats[cfg.Storage.Format] {
		return invalid("storage.format", cfg.Storage.Format, errors.New("valid: json, jsonl, csv"))
	}
	if cfg.Storage.Mongo.URI != "" {
		if cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return invalid("storage.mongo", cfg.Storage.Mongo.URI, errors.New("database and collection are required"))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return invalid("logging.level", cfg.Logging.Level, errors.New("must be debug/info/warn/error"))
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return invalid("logging.format", cfg.Logging.Format, errors.New("must be 'text' or 'json'"))
	}

	return nil
}

func invalid(field string, value any, err error) error {
	return &types.ConfigValidationError{Field: field, Value: value, Err: err}
}

// ValidateURL checks if a URL string is valid for crawling.
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

// ParseProxyURL turns a "host:port" proxy entry into a URL. An explicit
// http, https or socks5 scheme is kept; a bare entry defaults to http.
func ParseProxyURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty proxy")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if _, port, err := net.SplitHostPort(u.Host); err != nil || port == "" {
		return nil, fmt.Errorf("proxy must be host:port, got %q", u.Host)
	}
	return u, nil
}

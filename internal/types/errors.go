package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrEmptyProxyList  = errors.New("proxy list is empty")
	ErrEmptyResponse   = errors.New("empty response body")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrUnknownSelector = errors.New("unknown selector type")
)

// ConfigReadError is returned when the configuration source is missing,
// malformed or cannot be decoded.
type ConfigReadError struct {
	Path string
	Err  error
}

func (e *ConfigReadError) Error() string {
	return fmt.Sprintf("read config %s: %v", e.Path, e.Err)
}

func (e *ConfigReadError) Unwrap() error { return e.Err }

// ConfigValidationError reports a configuration value outside its allowed set.
type ConfigValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config field %s (%v): %v", e.Field, e.Value, e.Err)
}

func (e *ConfigValidationError) Unwrap() error { return e.Err }

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LanguageLabelParseError is returned for a language label that is not
// "<Language> <Percentage>".
type LanguageLabelParseError struct {
	Path  string
	Label string
	Err   error
}

func (e *LanguageLabelParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("language label %q of %s: %v", e.Label, e.Path, e.Err)
	}
	return fmt.Sprintf("language label %q: %v", e.Label, e.Err)
}

func (e *LanguageLabelParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

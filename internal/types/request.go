package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request tags used in logs and metrics.
const (
	TagSearch     = "search"
	TagRepository = "repository"
)

// Request represents a single page fetch.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Proxy routes the request through an HTTP proxy when non-nil.
	Proxy *url.URL

	// Tag categorizes this request ("search" or "repository").
	Tag string

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a GET request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:       u,
		Method:    http.MethodGet,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// ProxyHost returns the proxy host or "" for a direct request.
func (r *Request) ProxyHost() string {
	if r.Proxy == nil {
		return ""
	}
	return r.Proxy.Host
}

package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/ghcrawler/internal/fetcher"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// SearchURL builds the search page URL. Every keyword is query-escaped and
// followed by "+", so the q value keeps a trailing separator.
func SearchURL(baseURL string, keywords []string, rt types.ResultType) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString("/search?q=")
	for _, kw := range keywords {
		b.WriteString(url.QueryEscape(kw))
		b.WriteString("+")
	}
	b.WriteString("&type=")
	b.WriteString(url.QueryEscape(rt.String()))
	return b.String()
}

// Search fetches the search page and returns the matched site-relative
// paths in page order. No matches is an empty slice and a nil error.
func (c *Crawler) Search(ctx context.Context, keywords []string, rt types.ResultType, proxy *fetcher.ProxyOption) ([]string, error) {
	rule, ok := c.selectors.SearchRule(rt)
	if !ok {
		return nil, fmt.Errorf("no search rule for type %q", rt)
	}

	target := SearchURL(c.baseURL, keywords, rt)
	resp, err := c.fetchPage(ctx, target, types.TagSearch, proxy)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	paths, err := c.extract(resp, rule)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	c.logger.Info("search complete", "url", target, "type", rt, "matches", len(paths))
	return paths, nil
}

package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/fetcher"
	"github.com/IshaanNene/ghcrawler/internal/observability"
	"github.com/IshaanNene/ghcrawler/internal/parser"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// Crawler runs one search-and-enrich pass against the code-hosting site.
// Pages are fetched strictly one after another through the run's proxy.
type Crawler struct {
	fetcher   fetcher.Fetcher
	parser    parser.Parser
	selectors config.SelectorConfig
	baseURL   string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// Result is the outcome of a run.
type Result struct {
	// Records in search-result order.
	Records []types.ResultRecord

	// Empty is true when the search matched nothing. It is a normal outcome.
	Empty bool

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// New creates a crawler. A nil parser selects the XPath/CSS composite and a
// nil metrics instance gets a private one.
func New(cfg *config.Config, f fetcher.Fetcher, p parser.Parser, m *observability.Metrics, logger *slog.Logger) *Crawler {
	if p == nil {
		p = parser.NewCompositeParser(logger)
	}
	if m == nil {
		m = observability.NewMetrics(logger)
	}
	return &Crawler{
		fetcher:   f,
		parser:    p,
		selectors: cfg.Selectors,
		baseURL:   strings.TrimRight(cfg.GitHub.BaseURL, "/"),
		metrics:   m,
		logger:    logger.With("component", "crawler"),
	}
}

// Run searches for keywords and builds the records for every match.
func (c *Crawler) Run(ctx context.Context, keywords []string, rt types.ResultType, proxy *fetcher.ProxyOption) (*Result, error) {
	start := time.Now()
	c.logger.Info("crawl started", "type", rt, "keywords", len(keywords), "proxy", proxy.String())

	paths, err := c.Search(ctx, keywords, rt, proxy)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		c.logger.Info("search matched nothing", "type", rt)
		return &Result{Empty: true, Elapsed: time.Since(start)}, nil
	}

	records, err := c.BuildRecords(ctx, paths, rt, proxy)
	if err != nil {
		return nil, err
	}

	res := &Result{Records: records, Elapsed: time.Since(start)}
	c.logger.Info("crawl finished", "records", len(records), "elapsed", res.Elapsed)
	return res, nil
}

// fetchPage fetches rawURL through proxy and makes sure it parses as HTML.
func (c *Crawler) fetchPage(ctx context.Context, rawURL, tag string, proxy *fetcher.ProxyOption) (*types.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	req.Tag = tag
	proxy.Apply(req)

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		c.metrics.ObserveFetch(tag, 0, err)
		return nil, err
	}
	if _, err := resp.Tree(); err != nil {
		err = &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
		c.metrics.ObserveFetch(tag, 0, err)
		return nil, err
	}

	c.metrics.ObserveFetch(tag, len(resp.Body), nil)
	return resp, nil
}

// pageURL joins a site-relative path onto the base URL.
func (c *Crawler) pageURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Crawler) extract(resp *types.Response, rule config.ParseRule) ([]string, error) {
	values, err := c.parser.Extract(resp, rule)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rule.Name, err)
	}
	return values, nil
}

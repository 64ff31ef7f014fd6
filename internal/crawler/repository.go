package crawler

import (
	"context"
	"fmt"

	"github.com/IshaanNene/ghcrawler/internal/fetcher"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// LanguageLabels fetches a repository page and returns the raw language
// breakdown labels, e.g. "CSS 52.0".
func (c *Crawler) LanguageLabels(ctx context.Context, path string, proxy *fetcher.ProxyOption) ([]string, error) {
	resp, err := c.fetchPage(ctx, c.pageURL(path), types.TagRepository, proxy)
	if err != nil {
		return nil, fmt.Errorf("repository %s: %w", path, err)
	}

	labels, err := c.extract(resp, c.selectors.Languages)
	if err != nil {
		return nil, fmt.Errorf("repository %s: %w", path, err)
	}

	c.logger.Debug("language labels", "path", path, "count", len(labels))
	return labels, nil
}

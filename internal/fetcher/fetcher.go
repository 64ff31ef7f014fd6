package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL, routed through
	// req.Proxy when set.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New creates the fetcher selected by cfg.Fetcher.Type.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "", "http":
		return NewHTTPFetcher(&cfg.Fetcher, logger)
	case "browser":
		return NewBrowserFetcher(&cfg.Fetcher, logger), nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type %q", cfg.Fetcher.Type)
	}
}

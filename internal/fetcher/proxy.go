package fetcher

import (
	"fmt"
	"math/rand"
	"net/url"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// ProxyOption is the proxy picked once per run and handed to every fetch.
type ProxyOption struct {
	URL *url.URL
}

// SelectProxy picks one proxy uniformly at random.
// It returns types.ErrEmptyProxyList when proxies is empty.
func SelectProxy(proxies []string) (*ProxyOption, error) {
	return selectProxy(proxies, rand.Intn)
}

func selectProxy(proxies []string, intn func(int) int) (*ProxyOption, error) {
	if len(proxies) == 0 {
		return nil, types.ErrEmptyProxyList
	}

	raw := proxies[intn(len(proxies))]
	u, err := config.ParseProxyURL(raw)
	if err != nil {
		return nil, fmt.Errorf("proxy %q: %w", raw, err)
	}
	return &ProxyOption{URL: u}, nil
}

// Apply routes req through the proxy. A nil option leaves req direct.
func (p *ProxyOption) Apply(req *types.Request) {
	if p == nil {
		return
	}
	req.Proxy = p.URL
}

func (p *ProxyOption) String() string {
	if p == nil || p.URL == nil {
		return "direct"
	}
	return p.URL.Host
}

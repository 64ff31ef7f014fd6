package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
// Chromium takes its proxy at launch, so one browser is kept per proxy.
type BrowserFetcher struct {
	cfg         *config.FetcherConfig
	logger      *slog.Logger
	mu          sync.Mutex
	browsers    map[string]*rod.Browser
	newLauncher func(proxy *url.URL) browserLauncher
}

// browserLauncher starts a Chromium process and can kill it again.
type browserLauncher interface {
	Launch() (string, error)
	Kill()
}

// NewBrowserFetcher creates a headless browser fetcher. Chromium is
// launched lazily on the first Fetch.
func NewBrowserFetcher(cfg *config.FetcherConfig, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		cfg:         cfg,
		logger:      logger.With("component", "browser_fetcher"),
		browsers:    make(map[string]*rod.Browser),
		newLauncher: newChromiumLauncher,
	}
}

func newChromiumLauncher(proxy *url.URL) browserLauncher {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if proxy != nil {
		l = l.Proxy(proxy.String())
	}
	return l
}

// browserFor returns the browser launched with proxy, starting it if needed.
func (bf *BrowserFetcher) browserFor(proxy *url.URL) (*rod.Browser, error) {
	key := ""
	if proxy != nil {
		key = proxy.String()
	}

	bf.mu.Lock()
	defer bf.mu.Unlock()

	if b, ok := bf.browsers[key]; ok {
		return b, nil
	}

	l := bf.newLauncher(proxy)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		// The process is running but unusable; nothing else holds it.
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf.browsers[key] = browser
	bf.logger.Info("browser launched", "proxy", key, "stealth", bf.cfg.Stealth)
	return browser, nil
}

// Fetch navigates to a URL and returns the rendered page content.
// Rod does not expose the document status code, so a page that loads is
// reported as 200; navigation failures are FetchErrors.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()

	browser, err := bf.browserFor(req.Proxy)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	var page *rod.Page
	if bf.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: fmt.Errorf("open page: %w", err)}
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)
	if bf.cfg.Timeout > 0 {
		page = page.Timeout(bf.cfg.Timeout)
	}

	if bf.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bf.cfg.UserAgent})
		if err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: fmt.Errorf("wait load: %w", err)}
	}
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", req.URLString(), "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	finalURL := req.URLString()
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	resp := types.NewBrowserResponse(req, 200, []byte(html), finalURL, duration)

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"proxy", req.ProxyHost(),
		"size", len(html),
		"duration", duration,
	)

	return resp, nil
}

// Close shuts down every launched browser.
func (bf *BrowserFetcher) Close() error {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	var firstErr error
	for key, b := range bf.browsers {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(bf.browsers, key)
	}
	return firstErr
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

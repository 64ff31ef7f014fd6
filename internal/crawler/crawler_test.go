package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"testing"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/fetcher"
	"github.com/IshaanNene/ghcrawler/internal/observability"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// stubFetcher serves canned pages keyed by absolute URL.
type stubFetcher struct {
	pages   map[string]string
	status  map[string]int
	fetched []string
	proxies []string
}

func (s *stubFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	u := req.URLString()
	s.fetched = append(s.fetched, u)
	s.proxies = append(s.proxies, req.ProxyHost())

	if code, ok := s.status[u]; ok {
		return nil, &types.FetchError{URL: u, StatusCode: code, Err: errors.New("unexpected status")}
	}
	body, ok := s.pages[u]
	if !ok {
		return nil, &types.FetchError{URL: u, StatusCode: 404, Err: errors.New("not found")}
	}
	return &types.Response{Request: req, StatusCode: 200, Body: []byte(body), ContentType: "text/html"}, nil
}

func (s *stubFetcher) Close() error { return nil }
func (s *stubFetcher) Type() string { return "stub" }

const repoSearchPage = `<html><body><ul class="repo-list">
  <li><div class="f4 text-normal"><a class="v-align-middle" href="/atuldjadhav/DropBox-Cloud-Storage">atuldjadhav/DropBox-Cloud-Storage</a></div></li>
  <li><div class="f4 text-normal"><a class="v-align-middle" href="/michealbalogun/Horizon-dashboard">michealbalogun/Horizon-dashboard</a></div></li>
</ul></body></html>`

const issueSearchPage = `<html><body>
  <div class="issue-list-item">
    <div class="f4 text-normal markdown-title"><a href="/ZR-TECDI/zrstats/issues/13">Broken stats</a></div>
  </div>
</body></html>`

const wikiSearchPage = `<html><body>
  <div class="f4 text-normal"><a href="/lucanag/emotet/wiki/password-list">password list</a></div>
</body></html>`

const emptySearchPage = `<html><body><h3>We couldn't find any repositories matching 'zzzz'</h3></body></html>`

func languagePage(labels ...string) string {
	page := `<html><body><div class="mb-2"><span class="Progress">`
	for _, l := range labels {
		page += `<span class="Progress-item" aria-label="` + l + `"></span>`
	}
	return page + `</span></div></body></html>`
}

func newTestCrawler(t *testing.T, stub *stubFetcher) (*Crawler, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetrics(testLogger)
	return New(config.DefaultConfig(), stub, nil, m, testLogger), m
}

func testProxy(t *testing.T) *fetcher.ProxyOption {
	t.Helper()
	opt, err := fetcher.SelectProxy([]string{"194.126.37.94:8080"})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	return opt
}

func TestRunRepositoriesScenario(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/search?q=openstack+nova+css+&type=Repositories": repoSearchPage,
		"https://github.com/atuldjadhav/DropBox-Cloud-Storage":              languagePage("CSS 52.0", "JavaScript 47.2", "HTML 0.8"),
		"https://github.com/michealbalogun/Horizon-dashboard":               languagePage("Python 100.0"),
	}}
	c, m := newTestCrawler(t, stub)

	res, err := c.Run(context.Background(), []string{"openstack", "nova", "css"}, types.Repositories, testProxy(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Empty {
		t.Fatal("expected results")
	}

	want := []types.ResultRecord{
		{
			URL: "https://github.com/atuldjadhav/DropBox-Cloud-Storage",
			Extra: &types.RecordExtra{
				Owner:         "atuldjadhav",
				LanguageStats: types.LanguageStats{"CSS": 52.0, "JavaScript": 47.2, "HTML": 0.8},
			},
		},
		{
			URL: "https://github.com/michealbalogun/Horizon-dashboard",
			Extra: &types.RecordExtra{
				Owner:         "michealbalogun",
				LanguageStats: types.LanguageStats{"Python": 100.0},
			},
		},
	}
	if !reflect.DeepEqual(res.Records, want) {
		t.Errorf("unexpected records:\nwant %+v\ngot  %+v", want, res.Records)
	}

	// One search fetch then one fetch per repository, in order, all proxied.
	if len(stub.fetched) != 3 {
		t.Fatalf("expected 3 fetches, got %v", stub.fetched)
	}
	for i, host := range stub.proxies {
		if host != "194.126.37.94:8080" {
			t.Errorf("fetch %d went through %q, expected the selected proxy", i, host)
		}
	}

	snap := m.Snapshot()
	if snap["ghcrawler_requests_total"] != 3 || snap["ghcrawler_records_total"] != 2 {
		t.Errorf("unexpected metrics %v", snap)
	}
	if snap["ghcrawler_languages_parsed_total"] != 4 {
		t.Errorf("expected 4 parsed labels, got %d", snap["ghcrawler_languages_parsed_total"])
	}
}

func TestRunIssuesScenario(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/search?q=python+django-rest-framework+jwt+&type=Issues": issueSearchPage,
	}}
	c, _ := newTestCrawler(t, stub)

	res, err := c.Run(context.Background(), []string{"python", "django-rest-framework", "jwt"}, types.Issues, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := json.Marshal(res.Records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[{"url":"https://github.com/ZR-TECDI/zrstats/issues/13"}]` {
		t.Errorf("unexpected document %s", data)
	}
	if len(stub.fetched) != 1 {
		t.Errorf("issues must not fetch detail pages, fetched %v", stub.fetched)
	}
	if stub.proxies[0] != "" {
		t.Errorf("nil proxy option must fetch directly, got %q", stub.proxies[0])
	}
}

func TestRunWikisHaveNoExtra(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/search?q=emotet+&type=Wikis": wikiSearchPage,
	}}
	c, _ := newTestCrawler(t, stub)

	res, err := c.Run(context.Background(), []string{"emotet"}, types.Wikis, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	if res.Records[0].URL != "https://github.com/lucanag/emotet/wiki/password-list" || res.Records[0].Extra != nil {
		t.Errorf("unexpected wiki record %+v", res.Records[0])
	}
}

func TestRunEmptySearch(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/search?q=zzzz+&type=Repositories": emptySearchPage,
	}}
	c, _ := newTestCrawler(t, stub)

	res, err := c.Run(context.Background(), []string{"zzzz"}, types.Repositories, nil)
	if err != nil {
		t.Fatalf("empty search must succeed, got %v", err)
	}
	if !res.Empty || len(res.Records) != 0 {
		t.Errorf("expected an empty result, got %+v", res)
	}
}

func TestRunSearchFetchFailure(t *testing.T) {
	target := "https://github.com/search?q=a+&type=Issues"
	stub := &stubFetcher{status: map[string]int{target: 429}}
	c, m := newTestCrawler(t, stub)

	_, err := c.Run(context.Background(), []string{"a"}, types.Issues, nil)
	var fe *types.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 429 {
		t.Fatalf("expected FetchError 429, got %v", err)
	}
	if got := m.Snapshot()["ghcrawler_request_failures_total"]; got != 1 {
		t.Errorf("expected 1 failed request, got %d", got)
	}
}

func TestRunMalformedLanguageLabel(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		label string
	}{
		{"single token", languagePage("CSS"), "CSS"},
		{"empty label after a good one", languagePage("Go 90.0", ""), ""},
		{"not a number", languagePage("Go 90.0", "C NaN"), "C NaN"},
		{"infinite", languagePage("C Inf"), "C Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubFetcher{pages: map[string]string{
				"https://github.com/search?q=css+&type=Repositories":   repoSearchPage,
				"https://github.com/atuldjadhav/DropBox-Cloud-Storage": tt.page,
			}}
			c, _ := newTestCrawler(t, stub)

			res, err := c.Run(context.Background(), []string{"css"}, types.Repositories, nil)
			var le *types.LanguageLabelParseError
			if !errors.As(err, &le) {
				t.Fatalf("expected LanguageLabelParseError, got err=%v res=%+v", err, res)
			}
			if le.Label != tt.label || le.Path != "/atuldjadhav/DropBox-Cloud-Storage" {
				t.Errorf("unexpected error detail %+v", le)
			}
			// The run stops at the first failure.
			if len(stub.fetched) != 2 {
				t.Errorf("expected fetching to stop after the bad page, got %v", stub.fetched)
			}
		})
	}
}

func TestRunRepositoryFetchFailure(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/search?q=css+&type=Repositories": repoSearchPage,
	}}
	c, _ := newTestCrawler(t, stub)

	_, err := c.Run(context.Background(), []string{"css"}, types.Repositories, nil)
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.URL != "https://github.com/atuldjadhav/DropBox-Cloud-Storage" {
		t.Errorf("unexpected failing URL %q", fe.URL)
	}
}

func TestRunEmptyPageIsFetchError(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/search?q=a+&type=Wikis": "   ",
	}}
	c, _ := newTestCrawler(t, stub)

	_, err := c.Run(context.Background(), []string{"a"}, types.Wikis, nil)
	if !errors.Is(err, types.ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestRunCanceledContext(t *testing.T) {
	c, _ := newTestCrawler(t, &stubFetcher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Run(ctx, []string{"a"}, types.Issues, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRepositoryWithoutLanguages(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/a/empty": `<html><body><p>This repository is empty.</p></body></html>`,
	}}
	c, _ := newTestCrawler(t, stub)

	records, err := c.BuildRecords(context.Background(), []string{"/a/empty"}, types.Repositories, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if records[0].Extra == nil || records[0].Extra.Owner != "a" || len(records[0].Extra.LanguageStats) != 0 {
		t.Errorf("expected owner with no languages, got %+v", records[0].Extra)
	}

	data, _ := json.Marshal(records[0])
	if string(data) != `{"url":"https://github.com/a/empty","extra":{"owner":"a","language_stats":{}}}` {
		t.Errorf("unexpected document %s", data)
	}
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		keywords []string
		rt       types.ResultType
		want     string
	}{
		{[]string{"openstack", "nova", "css"}, types.Repositories, "https://github.com/search?q=openstack+nova+css+&type=Repositories"},
		{[]string{"python"}, types.Issues, "https://github.com/search?q=python+&type=Issues"},
		{[]string{"c++", "añejo"}, types.Wikis, "https://github.com/search?q=c%2B%2B+a%C3%B1ejo+&type=Wikis"},
		{nil, types.Issues, "https://github.com/search?q=&type=Issues"},
	}
	for _, tt := range tests {
		got := SearchURL("https://github.com/", tt.keywords, tt.rt)
		if got != tt.want {
			t.Errorf("SearchURL(%v) = %q, want %q", tt.keywords, got, tt.want)
		}
		if _, err := url.Parse(got); err != nil {
			t.Errorf("SearchURL(%v) is not a valid URL: %v", tt.keywords, err)
		}
	}
}

func TestOwner(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/atuldjadhav/DropBox-Cloud-Storage", "atuldjadhav", false},
		{"/michealbalogun/Horizon-dashboard", "michealbalogun", false},
		{"/solo", "solo", false},
		{"", "", true},
		{"/", "", true},
	}
	for _, tt := range tests {
		got, err := Owner(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("Owner(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Owner(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseLanguageLabel(t *testing.T) {
	tests := []struct {
		label   string
		lang    string
		pct     float64
		wantErr bool
	}{
		{"CSS 52.0", "CSS", 52.0, false},
		{"JavaScript 47.2", "JavaScript", 47.2, false},
		{"HTML 0.8", "HTML", 0.8, false},
		{"Python 100.0", "Python", 100.0, false},
		{"  Go   3  ", "Go", 3, false},
		{"CSS", "", 0, true},
		{"CSS fifty", "", 0, true},
		{"Jupyter Notebook 45.2", "", 0, true},
		{"", "", 0, true},
		{"Go NaN", "", 0, true},
		{"C Inf", "", 0, true},
		{"Rust +Infinity", "", 0, true},
		{"Zig -inf", "", 0, true},
		{"Go 0x1p-2", "Go", 0.25, false},
	}
	for _, tt := range tests {
		lang, pct, err := ParseLanguageLabel(tt.label)
		if tt.wantErr {
			var le *types.LanguageLabelParseError
			if !errors.As(err, &le) {
				t.Errorf("ParseLanguageLabel(%q): expected LanguageLabelParseError, got %v", tt.label, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLanguageLabel(%q): %v", tt.label, err)
			continue
		}
		if lang != tt.lang || pct != tt.pct {
			t.Errorf("ParseLanguageLabel(%q) = (%q, %v), want (%q, %v)", tt.label, lang, pct, tt.lang, tt.pct)
		}
	}
}

func TestBuildRecordsLastLabelWins(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/o/r": languagePage("Go 10.0", "Go 90.0"),
	}}
	c, m := newTestCrawler(t, stub)

	records, err := c.BuildRecords(context.Background(), []string{"/o/r"}, types.Repositories, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := records[0].Extra.LanguageStats["Go"]; got != 90.0 {
		t.Errorf("expected the later label to win, got %v", got)
	}
	if got := m.Snapshot()["ghcrawler_languages_parsed_total"]; got != 2 {
		t.Errorf("expected 2 labels counted, got %d", got)
	}
}

func TestBuildRecordsURLMatchesFetchedPage(t *testing.T) {
	stub := &stubFetcher{pages: map[string]string{
		"https://github.com/atuldjadhav/DropBox-Cloud-Storage": languagePage("CSS 52.0"),
	}}
	c, _ := newTestCrawler(t, stub)

	issues, err := c.BuildRecords(context.Background(), []string{"ZR-TECDI/zrstats/issues/13"}, types.Issues, nil)
	if err != nil {
		t.Fatalf("build issues: %v", err)
	}
	if issues[0].URL != "https://github.com/ZR-TECDI/zrstats/issues/13" {
		t.Errorf("unexpected issue URL %q", issues[0].URL)
	}

	repos, err := c.BuildRecords(context.Background(), []string{"atuldjadhav/DropBox-Cloud-Storage"}, types.Repositories, nil)
	if err != nil {
		t.Fatalf("build repositories: %v", err)
	}
	if len(stub.fetched) != 1 || repos[0].URL != stub.fetched[0] {
		t.Errorf("record URL %q must be the fetched page %v", repos[0].URL, stub.fetched)
	}
}

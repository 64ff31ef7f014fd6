package observability

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestObserveFetch(t *testing.T) {
	m := NewMetrics(testLogger)

	m.ObserveFetch("search", 1024, nil)
	m.ObserveFetch("repository", 512, nil)
	m.ObserveFetch("repository", 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("repository")); got != 2 {
		t.Errorf("expected 2 repository requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestFailures.WithLabelValues("repository")); got != 1 {
		t.Errorf("expected 1 repository failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.bytesDownloaded); got != 1536 {
		t.Errorf("expected 1536 bytes, got %v", got)
	}
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ObserveRecords("Repositories", 2)
	m.ObserveLanguages(4)

	snap := m.Snapshot()
	if snap["ghcrawler_records_total"] != 2 {
		t.Errorf("expected 2 records, got %d", snap["ghcrawler_records_total"])
	}
	if snap["ghcrawler_languages_parsed_total"] != 4 {
		t.Errorf("expected 4 languages, got %d", snap["ghcrawler_languages_parsed_total"])
	}
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ObserveFetch("search", 10, nil)
	m.Finish(1500*time.Millisecond, true)

	path := filepath.Join(t.TempDir(), "ghcrawler.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`ghcrawler_requests_total{kind="search"} 1`,
		"ghcrawler_last_run_duration_seconds 1.5",
		"ghcrawler_last_success_timestamp_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestFinishWithoutSuccess(t *testing.T) {
	m := NewMetrics(testLogger)
	m.Finish(time.Second, false)
	if got := testutil.ToFloat64(m.lastSuccess); got != 0 {
		t.Errorf("expected no success timestamp, got %v", got)
	}
}

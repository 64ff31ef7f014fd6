package observability

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ghcrawler"

// Metrics tracks operational metrics for one crawl run on a private registry.
// A batch job has no scrape window, so the registry is written to a
// node_exporter textfile at the end of the run.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestFailures *prometheus.CounterVec
	bytesDownloaded prometheus.Counter
	records         *prometheus.CounterVec
	languagesParsed prometheus.Counter
	runDuration     prometheus.Gauge
	lastSuccess     prometheus.Gauge

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total page fetches attempted",
		}, []string{"kind"}),
		requestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_failures_total",
			Help:      "Total page fetches that failed",
		}, []string{"kind"}),
		bytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_downloaded_total",
			Help:      "Total response bytes downloaded",
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total result records built",
		}, []string{"type"}),
		languagesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "languages_parsed_total",
			Help:      "Total language labels parsed from repository pages",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		logger: logger.With("component", "metrics"),
	}

	m.registry.MustRegister(
		m.requests, m.requestFailures, m.bytesDownloaded,
		m.records, m.languagesParsed,
		m.runDuration, m.lastSuccess,
	)
	return m
}

// ObserveFetch records one fetch of the given kind.
func (m *Metrics) ObserveFetch(kind string, bytes int, err error) {
	m.requests.WithLabelValues(kind).Inc()
	if err != nil {
		m.requestFailures.WithLabelValues(kind).Inc()
		return
	}
	m.bytesDownloaded.Add(float64(bytes))
}

// ObserveRecords records n built records of a result type.
func (m *Metrics) ObserveRecords(resultType string, n int) {
	m.records.WithLabelValues(resultType).Add(float64(n))
}

// ObserveLanguages records n parsed language labels.
func (m *Metrics) ObserveLanguages(n int) {
	m.languagesParsed.Add(float64(n))
}

// Finish records the run duration and, on success, the completion time.
func (m *Metrics) Finish(elapsed time.Duration, success bool) {
	m.runDuration.Set(elapsed.Seconds())
	if success {
		m.lastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes the registry in Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	m.logger.Debug("metrics written", "path", path)
	return nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Snapshot returns the counters as a flat map for the run summary.
func (m *Metrics) Snapshot() map[string]int64 {
	families, err := m.registry.Gather()
	if err != nil {
		m.logger.Warn("gather metrics", "error", err)
		return nil
	}

	snap := make(map[string]int64)
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			}
		}
		snap[mf.GetName()] = int64(total)
	}
	return snap
}

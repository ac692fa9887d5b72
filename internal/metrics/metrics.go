// Package metrics implements the observability hooks with Prometheus
// collectors.
//
// A batch CLI has no scrape endpoint, so the registry is written to a
// node_exporter textfile after a run instead of being served.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/curator/pkg/observability"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	reg *prometheus.Registry

	RecordsTotal      *prometheus.CounterVec
	RecordDuration    *prometheus.HistogramVec
	RunsTotal         prometheus.Counter
	RunDuration       prometheus.Histogram
	LastRunRecords    *prometheus.GaugeVec
	LastRunTimestamp  prometheus.Gauge
	CacheEventsTotal  *prometheus.CounterVec
	CacheBytesWritten *prometheus.CounterVec
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	HTTPErrorsTotal   *prometheus.CounterVec
	RateLimitedTotal  *prometheus.CounterVec
	RetriesTotal      *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		RecordsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_records_total",
			Help: "Records processed, by kind, source and outcome",
		}, []string{"kind", "source", "outcome"}),
		RecordDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curator_record_duration_seconds",
			Help:    "Time to fetch, merge and save one record",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "curator_runs_total",
			Help: "Enrichment runs started",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "curator_run_duration_seconds",
			Help:    "Duration of enrichment runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		LastRunRecords: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "curator_last_run_records",
			Help: "Record counts of the last run, by outcome",
		}, []string{"outcome"}),
		LastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "curator_last_run_timestamp_seconds",
			Help: "Unix time the last run completed",
		}),
		CacheEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_cache_events_total",
			Help: "Cache hits, misses, writes and errors, by source",
		}, []string{"source", "event"}),
		CacheBytesWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_cache_written_bytes_total",
			Help: "Bytes written to the cache, by source",
		}, []string{"source"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_http_requests_total",
			Help: "Upstream HTTP responses, by host and status code",
		}, []string{"host", "status_code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curator_http_request_duration_seconds",
			Help:    "Upstream HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
		HTTPErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_http_errors_total",
			Help: "Upstream transport failures, by host",
		}, []string{"host"}),
		RateLimitedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_rate_limited_total",
			Help: "Requests refused by a local limiter or an upstream 429",
		}, []string{"source"}),
		RetriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_retries_total",
			Help: "Retried upstream operations, by source",
		}, []string{"source"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetEnrichHooks(enrichHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetHTTPHooks(httpHooks{m})
	observability.SetLimitHooks(limitHooks{m})
}

// WriteTextfile writes the registry in the text exposition format,
// replacing path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

type enrichHooks struct{ m *Metrics }

func (h enrichHooks) OnRunStart(context.Context, string, int) {
	h.m.RunsTotal.Inc()
}

func (h enrichHooks) OnRecordComplete(_ context.Context, kind, source, outcome string, d time.Duration, _ error) {
	h.m.RecordsTotal.WithLabelValues(kind, source, outcome).Inc()
	if source != "" {
		h.m.RecordDuration.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (h enrichHooks) OnRunComplete(_ context.Context, _ string, s observability.RunSummary, d time.Duration) {
	h.m.RunDuration.Observe(d.Seconds())
	h.m.LastRunRecords.WithLabelValues("total").Set(float64(s.Total))
	h.m.LastRunRecords.WithLabelValues("updated").Set(float64(s.Updated))
	h.m.LastRunRecords.WithLabelValues("unchanged").Set(float64(s.Unchanged))
	h.m.LastRunRecords.WithLabelValues("failed").Set(float64(s.Failed))
	h.m.LastRunRecords.WithLabelValues("skipped").Set(float64(s.Skipped))
	h.m.LastRunTimestamp.SetToCurrentTime()
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, source string) {
	h.m.CacheEventsTotal.WithLabelValues(source, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, source string) {
	h.m.CacheEventsTotal.WithLabelValues(source, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, source string, size int) {
	h.m.CacheEventsTotal.WithLabelValues(source, "set").Inc()
	h.m.CacheBytesWritten.WithLabelValues(source).Add(float64(size))
}

func (h cacheHooks) OnCacheError(_ context.Context, source string, _ error) {
	h.m.CacheEventsTotal.WithLabelValues(source, "error").Inc()
}

type httpHooks struct{ m *Metrics }

func (httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.m.HTTPRequestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	h.m.HTTPDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.m.HTTPErrorsTotal.WithLabelValues(host).Inc()
}

type limitHooks struct{ m *Metrics }

func (h limitHooks) OnRateLimited(_ context.Context, source string, _ time.Duration) {
	h.m.RateLimitedTotal.WithLabelValues(source).Inc()
}

func (h limitHooks) OnRetry(_ context.Context, source string, _ int, _ time.Duration, _ error) {
	h.m.RetriesTotal.WithLabelValues(source).Inc()
}

var (
	_ observability.EnrichHooks = enrichHooks{}
	_ observability.CacheHooks  = cacheHooks{}
	_ observability.HTTPHooks   = httpHooks{}
	_ observability.LimitHooks  = limitHooks{}
)

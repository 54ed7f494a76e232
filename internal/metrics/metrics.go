package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Parse statuses used as the status label.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Parse metrics
	ParseRequestsTotal   *prometheus.CounterVec
	ParseDurationSeconds *prometheus.HistogramVec
	ParseRecordsTotal    *prometheus.CounterVec
	ParseStrategyTotal   *prometheus.CounterVec
	SkippedRowsTotal     *prometheus.CounterVec
	ParseIssuesTotal     *prometheus.CounterVec
	InputBytes           *prometheus.HistogramVec

	// Sink metrics
	StorageOpsTotal *prometheus.CounterVec
	ArchiveTotal    *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropsTotal *prometheus.CounterVec
	RateLimiterClients    *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		ParseRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_parse_requests_total",
				Help: "Total number of parse requests by page kind and status",
			},
			[]string{"kind", "status"}, // status: success, empty, error, timeout
		),

		ParseDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aisis_parse_duration_seconds",
				Help:    "Parse duration in seconds by page kind",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"kind"},
		),

		ParseRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_parse_records_total",
				Help: "Total number of records extracted by page kind",
			},
			[]string{"kind"},
		),

		ParseStrategyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_parse_strategy_total",
				Help: "Number of parses decided by each strategy",
			},
			[]string{"kind", "strategy"}, // strategy: tabular, plaintext, grid, list, html, html_text
		),

		SkippedRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_skipped_rows_total",
				Help: "Total number of skipped rows by page kind and reason",
			},
			[]string{"kind", "reason"},
		),

		ParseIssuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_parse_issues_total",
				Help: "Total number of parse issues by page kind and type",
			},
			[]string{"kind", "type"}, // type: error, warning
		),

		InputBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aisis_input_bytes",
				Help:    "Size of parse inputs in bytes by page kind",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to 16MiB
			},
			[]string{"kind"},
		),

		StorageOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_storage_operations_total",
				Help: "Total SQLite sink operations by operation and status",
			},
			[]string{"operation", "status"},
		),

		ArchiveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_archive_uploads_total",
				Help: "Total raw-input archive uploads by status",
			},
			[]string{"status"},
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: invalid_input, input_too_large, not_found, rate_limited, timeout, internal
		),

		RateLimiterDropsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisis_rate_limiter_dropped_total",
				Help: "Total requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),

		RateLimiterClients: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aisis_rate_limiter_clients",
				Help: "Clients currently tracked by a rate limiter",
			},
			[]string{"limiter"},
		),
	}
}

// ParseSample is one finished parse as seen by the metrics layer.
type ParseSample struct {
	Kind     string
	Status   string
	Strategy string
	Duration float64
	Bytes    int
	Records  int
	Errors   int
	Warnings int
	Skipped  map[string]int
}

// RecordParse records every metric for a finished parse.
func (m *Metrics) RecordParse(s ParseSample) {
	m.ParseRequestsTotal.WithLabelValues(s.Kind, s.Status).Inc()
	m.ParseDurationSeconds.WithLabelValues(s.Kind).Observe(s.Duration)
	m.InputBytes.WithLabelValues(s.Kind).Observe(float64(s.Bytes))
	if s.Records > 0 {
		m.ParseRecordsTotal.WithLabelValues(s.Kind).Add(float64(s.Records))
	}
	if s.Strategy != "" {
		m.ParseStrategyTotal.WithLabelValues(s.Kind, s.Strategy).Inc()
	}
	if s.Errors > 0 {
		m.ParseIssuesTotal.WithLabelValues(s.Kind, "error").Add(float64(s.Errors))
	}
	if s.Warnings > 0 {
		m.ParseIssuesTotal.WithLabelValues(s.Kind, "warning").Add(float64(s.Warnings))
	}
	for reason, n := range s.Skipped {
		m.SkippedRowsTotal.WithLabelValues(s.Kind, reason).Add(float64(n))
	}
}

// RecordStorage records a SQLite sink operation
func (m *Metrics) RecordStorage(operation, status string) {
	m.StorageOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordArchive records an R2 archive upload
func (m *Metrics) RecordArchive(status string) {
	m.ArchiveTotal.WithLabelValues(status).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterDrop records a request rejected by the named limiter
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	m.RateLimiterDropsTotal.WithLabelValues(limiter).Inc()
}

// SetRateLimiterClients sets the number of clients the named limiter tracks
func (m *Metrics) SetRateLimiterClients(limiter string, count int) {
	m.RateLimiterClients.WithLabelValues(limiter).Set(float64(count))
}

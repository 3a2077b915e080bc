package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/sentinel/pkg/constants"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	EventsAnalyzed    *prometheus.CounterVec
	PatternsDetected  *prometheus.CounterVec
	AnalyzeLatency    prometheus.Histogram
	ActiveProfiles    prometheus.Gauge
	Evictions         *prometheus.CounterVec
	FastPathHits      prometheus.Counter
	AlertFailures     *prometheus.CounterVec
	ThrottledRequests *prometheus.CounterVec

	HTTPRequests       *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
	HTTPActiveRequests *prometheus.GaugeVec
}

// NewMetrics creates the Prometheus metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EventsAnalyzed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_events_analyzed_total",
				Help: "Total number of scored events by threat level.",
			},
			[]string{"level"},
		),
		PatternsDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_patterns_detected_total",
				Help: "Total number of behavior patterns detected.",
			},
			[]string{"pattern"},
		),
		AnalyzeLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentinel_analyze_latency_seconds",
				Help:    "Latency of event analysis.",
				Buckets: []float64{.00001, .000025, .00005, .0001, .00025, .0005, .001, .005, .01},
			},
		),
		ActiveProfiles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentinel_active_profiles",
				Help: "Number of client profiles currently held in memory.",
			},
		),
		Evictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_profile_evictions_total",
				Help: "Total number of profiles removed by eviction.",
			},
			[]string{"kind"},
		),
		FastPathHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sentinel_compromised_fast_path_total",
				Help: "Total number of events short-circuited for compromised clients.",
			},
		),
		AlertFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_alert_publish_failures_total",
				Help: "Total number of alerts that could not be published.",
			},
			[]string{"alert_type"},
		),
		ThrottledRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_throttled_requests_total",
				Help: "Total number of detect requests over the client budget.",
			},
			[]string{"tenant_id"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentinel_http_active_requests",
				Help: "Number of HTTP requests in flight.",
			},
			[]string{"method", "path"},
		),
	}
}

// RecordAnalysis records one scored event.
func (m *Metrics) RecordAnalysis(level string, patterns []string, duration time.Duration) {
	m.EventsAnalyzed.WithLabelValues(level).Inc()
	for _, p := range patterns {
		m.PatternsDetected.WithLabelValues(p).Inc()
	}
	m.AnalyzeLatency.Observe(duration.Seconds())
}

// RecordEviction records profiles removed by one eviction kind.
func (m *Metrics) RecordEviction(kind constants.EvictionKind, count int) {
	m.Evictions.WithLabelValues(string(kind)).Add(float64(count))
}

// RecordAlertFailure records an undeliverable alert.
func (m *Metrics) RecordAlertFailure(alertType constants.AlertType) {
	m.AlertFailures.WithLabelValues(string(alertType)).Inc()
}

// RecordThrottled records a throttled detect request.
func (m *Metrics) RecordThrottled(tenantID string) {
	m.ThrottledRequests.WithLabelValues(tenantID).Inc()
}

func (m *Metrics) ActiveRequestsInc(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(method, path).Inc()
}

func (m *Metrics) ActiveRequestsDec(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(method, path).Dec()
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(path, method string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, path).Observe(duration.Seconds())
}

//Personal.AI order the ending

package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/pkg/constants"
)

func TestMetricsAdapter_RecordsDomainEvents(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	adapter := NewMetricsAdapter(m)

	adapter.RecordAnalysis(models.ThreatCritical,
		[]models.BehaviorPattern{models.PatternPayloadInjection, models.PatternCredentialSpray}, time.Millisecond)
	adapter.RecordAnalysis(models.ThreatSafe, nil, time.Microsecond)
	adapter.RecordFastPath()
	adapter.RecordEviction(constants.EvictionStale, 3)
	adapter.RecordEviction(constants.EvictionClearAll, 10)
	adapter.SetActiveProfiles(42)
	adapter.RecordAlertFailure(constants.AlertCriticalDetection)
	adapter.RecordThrottled("tenant-a")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsAnalyzed.WithLabelValues("Critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsAnalyzed.WithLabelValues("Safe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PatternsDetected.WithLabelValues("PayloadInjection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PatternsDetected.WithLabelValues("CredentialSpray")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FastPathHits))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Evictions.WithLabelValues("stale")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Evictions.WithLabelValues("clear_all")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.ActiveProfiles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertFailures.WithLabelValues("critical_detection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThrottledRequests.WithLabelValues("tenant-a")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AnalyzeLatency))
}

func TestMetrics_HTTPRequests(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ActiveRequestsInc("/api/v1/detect", "POST")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPActiveRequests.WithLabelValues("POST", "/api/v1/detect")))
	m.ObserveRequest("/api/v1/detect", "POST", 200, 5*time.Millisecond)
	m.ActiveRequestsDec("/api/v1/detect", "POST")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPActiveRequests.WithLabelValues("POST", "/api/v1/detect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/detect", "200")))
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}

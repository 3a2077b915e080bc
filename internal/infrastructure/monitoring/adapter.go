// Package monitoring provides the zap logger, the Prometheus metrics and the
// OpenTelemetry tracing used by the service.
package monitoring

import (
	"time"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/pkg/constants"
)

// MetricsAdapter implements the domain's service.Metrics interface, sending metrics to a Prometheus backend.
// MetricsAdapter 实现了域的 service.Metrics 接口，将指标发送到 Prometheus 后端。
type MetricsAdapter struct {
	metrics *Metrics
}

// NewMetricsAdapter wraps a concrete Prometheus Metrics object.
func NewMetricsAdapter(metrics *Metrics) service.Metrics {
	return &MetricsAdapter{metrics: metrics}
}

// RecordAnalysis translates domain enums into label values.
func (a *MetricsAdapter) RecordAnalysis(level models.ThreatLevel, patterns []models.BehaviorPattern, duration time.Duration) {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.String()
	}
	a.metrics.RecordAnalysis(level.String(), names, duration)
}

func (a *MetricsAdapter) RecordFastPath() {
	a.metrics.FastPathHits.Inc()
}

func (a *MetricsAdapter) RecordEviction(kind constants.EvictionKind, count int) {
	a.metrics.RecordEviction(kind, count)
}

func (a *MetricsAdapter) SetActiveProfiles(count int) {
	a.metrics.ActiveProfiles.Set(float64(count))
}

func (a *MetricsAdapter) RecordAlertFailure(alertType constants.AlertType) {
	a.metrics.RecordAlertFailure(alertType)
}

func (a *MetricsAdapter) RecordThrottled(tenantID string) {
	a.metrics.RecordThrottled(tenantID)
}

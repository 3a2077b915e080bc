// Package service holds the detection rules, the scoring engine and the
// interfaces the application layer depends on.
package service

import (
	"time"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/pkg/constants"
)

// Metrics defines the interface for collecting detector metrics.
// This abstraction keeps the application layer independent of Prometheus.
// Metrics 定义了收集检测器指标的接口。
type Metrics interface {
	// RecordAnalysis records one scored event with its level, patterns and latency.
	// RecordAnalysis 记录一次评分事件的级别、模式和延迟。
	RecordAnalysis(level models.ThreatLevel, patterns []models.BehaviorPattern, duration time.Duration)

	// RecordFastPath records an event short-circuited for a compromised client.
	RecordFastPath()

	// RecordEviction records profiles removed by the given eviction kind.
	// RecordEviction 记录按驱逐类型移除的画像数量。
	RecordEviction(kind constants.EvictionKind, count int)

	// SetActiveProfiles updates the active profile gauge.
	SetActiveProfiles(count int)

	// RecordAlertFailure records an alert that could not be published.
	// RecordAlertFailure 记录发布失败的告警。
	RecordAlertFailure(alertType constants.AlertType)

	// RecordThrottled records a request denied by the throttler.
	RecordThrottled(tenantID string)
}

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

func (NoopMetrics) RecordAnalysis(models.ThreatLevel, []models.BehaviorPattern, time.Duration) {}
func (NoopMetrics) RecordFastPath() {}
func (NoopMetrics) RecordEviction(constants.EvictionKind, int) {}
func (NoopMetrics) SetActiveProfiles(int) {}
func (NoopMetrics) RecordAlertFailure(constants.AlertType) {}
func (NoopMetrics) RecordThrottled(string) {}

var _ Metrics = NoopMetrics{}

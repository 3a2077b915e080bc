package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/pkg/constants"
)

// MockMetrics is a mock implementation of service.Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordAnalysis(level models.ThreatLevel, patterns []models.BehaviorPattern, duration time.Duration) {
	m.Called(level, patterns, duration)
}

func (m *MockMetrics) RecordFastPath() {
	m.Called()
}

func (m *MockMetrics) RecordEviction(kind constants.EvictionKind, count int) {
	m.Called(kind, count)
}

func (m *MockMetrics) SetActiveProfiles(count int) {
	m.Called(count)
}

func (m *MockMetrics) RecordAlertFailure(alertType constants.AlertType) {
	m.Called(alertType)
}

func (m *MockMetrics) RecordThrottled(tenantID string) {
	m.Called(tenantID)
}

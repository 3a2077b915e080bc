package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/sentinel/internal/domain/models"
)

// MockAlertPublisher is a mock implementation of AlertPublisher
type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) Publish(ctx context.Context, alert models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockThrottler is a mock implementation of Throttler
type MockThrottler struct {
	mock.Mock
}

func (m *MockThrottler) Allow(key models.ProfileKey) bool {
	args := m.Called(key)
	return args.Bool(0)
}

func (m *MockThrottler) Tighten(key models.ProfileKey, level models.ThreatLevel) {
	m.Called(key, level)
}

func (m *MockThrottler) Reset(key models.ProfileKey) {
	m.Called(key)
}

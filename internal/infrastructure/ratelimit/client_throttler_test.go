package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/internal/infrastructure/ratelimit"
)

func TestClientThrottler_AllowsBurstThenDenies(t *testing.T) {
	throttler := ratelimit.NewClientThrottler(ratelimit.ThrottleConfig{RPS: 0.001, Burst: 3, IdleTTL: time.Minute})
	key := models.ProfileKey{TenantID: "t", ClientID: "c"}

	for i := 0; i < 3; i++ {
		assert.True(t, throttler.Allow(key), "request %d", i)
	}
	assert.False(t, throttler.Allow(key))

	other := models.ProfileKey{TenantID: "t2", ClientID: "c"}
	assert.True(t, throttler.Allow(other), "tenants have separate budgets")
	assert.Equal(t, 2, throttler.Size())
}

func TestClientThrottler_TightenByLevel(t *testing.T) {
	throttler := ratelimit.NewClientThrottler(ratelimit.ThrottleConfig{RPS: 100, Burst: 10, IdleTTL: time.Minute})
	key := models.ProfileKey{TenantID: "t", ClientID: "c"}

	tests := []struct {
		level models.ThreatLevel
		want  float64
	}{
		{models.ThreatSafe, 100},
		{models.ThreatLow, 100},
		{models.ThreatMedium, 50},
		{models.ThreatHigh, 25},
		{models.ThreatCritical, 0},
	}
	for _, tt := range tests {
		throttler.Tighten(key, tt.level)
		assert.Equal(t, tt.want, throttler.Limit(key), tt.level.String())
	}
}

func TestClientThrottler_CriticalBlocksUntilReset(t *testing.T) {
	throttler := ratelimit.NewClientThrottler(ratelimit.ThrottleConfig{RPS: 100, Burst: 10, IdleTTL: time.Minute})
	key := models.ProfileKey{TenantID: "t", ClientID: "c"}

	throttler.Tighten(key, models.ThreatCritical)
	assert.False(t, throttler.Allow(key))
	assert.False(t, throttler.Allow(key))

	throttler.Reset(key)
	assert.True(t, throttler.Allow(key))
	assert.Equal(t, 100.0, throttler.Limit(key))
}

func TestClientThrottler_Defaults(t *testing.T) {
	throttler := ratelimit.NewClientThrottler(ratelimit.ThrottleConfig{})
	key := models.ProfileKey{TenantID: "t", ClientID: "c"}
	assert.True(t, throttler.Allow(key))
	assert.Equal(t, 100.0, throttler.Limit(key))
}

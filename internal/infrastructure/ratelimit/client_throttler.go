// Package ratelimit provides the per-client throttler that tightens as threat rises.
package ratelimit

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/pkg/constants"
)

// ThrottleConfig holds throttler configuration.
type ThrottleConfig struct {
	// RPS is the per-client rate before any tightening
	RPS float64
	// Burst is the per-client bucket size
	Burst int
	// IdleTTL is how long an untouched limiter is kept
	IdleTTL time.Duration
}

// ClientThrottler keeps one token bucket per (tenant, client), held in an
// expiring cache so idle clients cost nothing.
type ClientThrottler struct {
	limiters *cache.Cache
	rps      float64
	burst    int
}

// NewClientThrottler creates a throttler. Zero values use the defaults.
func NewClientThrottler(cfg ThrottleConfig) *ClientThrottler {
	if cfg.RPS <= 0 {
		cfg.RPS = constants.DefaultClientRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = constants.DefaultClientBurst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = constants.DefaultThrottleIdleTTL
	}
	return &ClientThrottler{
		limiters: cache.New(cfg.IdleTTL, cfg.IdleTTL/2),
		rps:      cfg.RPS,
		burst:    cfg.Burst,
	}
}

// rateFactor is the share of the base rate a client keeps at each level.
// Critical clients get nothing.
func rateFactor(level models.ThreatLevel) float64 {
	switch level {
	case models.ThreatSafe, models.ThreatLow:
		return 1.0
	case models.ThreatMedium:
		return 0.5
	case models.ThreatHigh:
		return 0.25
	case models.ThreatCritical:
		return 0
	default:
		return 0
	}
}

// limiter gets or creates the limiter for key and refreshes its expiry.
func (t *ClientThrottler) limiter(key string) *rate.Limiter {
	if v, found := t.limiters.Get(key); found {
		l := v.(*rate.Limiter)
		t.limiters.SetDefault(key, l)
		return l
	}

	l := rate.NewLimiter(rate.Limit(t.rps), t.burst)
	if err := t.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		// Lost the race; use the winner's limiter.
		if v, found := t.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow implements service.Throttler.
func (t *ClientThrottler) Allow(key models.ProfileKey) bool {
	return t.limiter(key.String()).Allow()
}

// Tighten sets the client's rate from the latest detected level.
func (t *ClientThrottler) Tighten(key models.ProfileKey, level models.ThreatLevel) {
	l := t.limiter(key.String())
	factor := rateFactor(level)
	if factor == 0 {
		l.SetLimit(0)
		l.SetBurst(0)
		return
	}
	l.SetLimit(rate.Limit(t.rps * factor))
	l.SetBurst(t.burst)
}

// Reset drops the client's limiter so the next request starts from the defaults.
func (t *ClientThrottler) Reset(key models.ProfileKey) {
	t.limiters.Delete(key.String())
}

// Size returns the number of tracked clients.
func (t *ClientThrottler) Size() int {
	return t.limiters.ItemCount()
}

// Limit returns the current rate for the client, mainly for inspection.
func (t *ClientThrottler) Limit(key models.ProfileKey) float64 {
	return float64(t.limiter(key.String()).Limit())
}

var _ service.Throttler = (*ClientThrottler)(nil)

package application

import (
	"context"
	"time"

	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/logger"
)

// StaleEvicter is the part of the detector the janitor drives.
type StaleEvicter interface {
	EvictStale(ctx context.Context) int
}

// Janitor periodically sweeps stale profiles so the capacity-triggered
// eviction in Analyze is rarely needed.
// Janitor 定期清理过期画像。
type Janitor struct {
	evicter  StaleEvicter
	interval time.Duration
	logger   logger.Logger
}

// NewJanitor creates a janitor. A non-positive interval uses the default.
func NewJanitor(evicter StaleEvicter, interval time.Duration, log logger.Logger) *Janitor {
	if interval <= 0 {
		interval = constants.DefaultJanitorInterval
	}
	return &Janitor{
		evicter:  evicter,
		interval: interval,
		logger:   log.WithComponent("Janitor"),
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info(ctx, "Profile janitor started", logger.Duration("interval", j.interval))
	for {
		select {
		case <-ctx.Done():
			j.logger.Info(ctx, "Profile janitor stopped")
			return nil
		case <-ticker.C:
			j.evicter.EvictStale(ctx)
		}
	}
}

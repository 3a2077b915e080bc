// Package application orchestrates the profile store, the pattern matcher and
// the scoring engine behind the AnomalyDetector façade.
package application

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/internal/domain/repository"
	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
	"github.com/turtacn/sentinel/pkg/logger"
	"github.com/turtacn/sentinel/pkg/utils"
)

const tracerName = "sentinel-detector"

// DetectorConfig is the construction-time configuration of the detector.
type DetectorConfig struct {
	MaxProfiles     int
	StalenessWindow time.Duration
}

// Validate rejects a non-positive profile cap or a negative staleness window.
func (c DetectorConfig) Validate() error {
	if c.MaxProfiles <= 0 {
		return errors.ErrConfiguration("max_profiles must be greater than zero").
			WithMetadata("max_profiles", c.MaxProfiles)
	}
	if c.StalenessWindow < 0 {
		return errors.ErrConfiguration("staleness_window must not be negative").
			WithMetadata("staleness_window", c.StalenessWindow.String())
	}
	return nil
}

// AnomalyDetector scores events against per-client behavioral profiles.
//
// Construct exactly one AnomalyDetector at process start and share it with
// every request handler. A detector built per request starts from an empty
// store, so it forgets every profile and every compromise mark.
//
// All methods are safe for concurrent use.
// AnomalyDetector 在进程启动时构建一次，并注入到每个请求处理器中。
type AnomalyDetector struct {
	cfg       DetectorConfig
	store     repository.ProfileStore
	matcher   *service.PatternMatcher
	engine    *service.ScoringEngine
	publisher service.AlertPublisher
	metrics   service.Metrics
	tracer    trace.Tracer
	logger    logger.Logger
	now       func() time.Time

	// evictMu serializes store-wide eviction so concurrent creators do not
	// each run a full scan.
	evictMu sync.Mutex

	startedAt       time.Time
	eventsProcessed atomic.Uint64
}

// NewAnomalyDetector creates the detector. publisher, metrics and tracer may be
// nil, in which case alerts and measurements are discarded.
func NewAnomalyDetector(
	cfg DetectorConfig,
	store repository.ProfileStore,
	matcher *service.PatternMatcher,
	engine *service.ScoringEngine,
	publisher service.AlertPublisher,
	metrics service.Metrics,
	tracer trace.Tracer,
	log logger.Logger,
) (*AnomalyDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || matcher == nil || engine == nil {
		return nil, errors.ErrConfiguration("detector requires a profile store, a pattern matcher and a scoring engine")
	}
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}

	d := &AnomalyDetector{
		cfg:       cfg,
		store:     store,
		matcher:   matcher,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics,
		tracer:    tracer,
		logger:    log.WithComponent("AnomalyDetector"),
		now:       time.Now,
	}
	d.startedAt = d.now()
	return d, nil
}

// Analyze scores one event and updates its profile. It never fails: out of
// range indicators are clamped and a full store is made room for.
func (d *AnomalyDetector) Analyze(ctx context.Context, event models.Event) models.AnomalyScore {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "anomaly.analyze", trace.WithAttributes(
		attribute.String("tenant_id", event.TenantID),
		attribute.String("client_id", event.ClientID),
	))
	defer span.End()

	now := d.now()
	key := models.ProfileKey{TenantID: event.TenantID, ClientID: event.ClientID}
	d.ensureCapacity(ctx, key, now)

	confidence := event.Confidence
	if !utils.IsFinite(confidence) {
		confidence = 0
	}
	confidence = utils.Clamp(confidence, 0, 1)

	result := models.AnomalyScore{
		EventID:   uuid.NewString(),
		TenantID:  event.TenantID,
		ClientID:  event.ClientID,
		Timestamp: now,
	}
	fastPath := false

	d.store.Upsert(key, now, func(p *models.ClientProfile, _ bool) {
		p.Touch(now, confidence)

		if p.IsCompromised {
			fastPath = true
			result.Score = 1.0
			result.Level = models.ThreatCritical
			result.DetectedPatterns = []models.BehaviorPattern{}
			result.Recommendation = constants.RecommendationBlockPermanently
			return
		}

		patterns := d.matcher.Detect(event.Indicators)
		score, override := d.engine.Score(patterns, event.Indicators)
		level := d.engine.Classify(score, override)
		d.engine.UpdateRisk(p, score, level, now)

		result.Score = score
		result.Level = level
		result.DetectedPatterns = patterns
		result.Recommendation = d.engine.Recommendation(level)
	})

	d.eventsProcessed.Add(1)
	d.metrics.SetActiveProfiles(d.store.Size())
	span.SetAttributes(
		attribute.String("threat_level", result.Level.String()),
		attribute.Float64("score", result.Score),
		attribute.Bool("fast_path", fastPath),
	)

	if fastPath {
		d.metrics.RecordFastPath()
		d.logger.Debug(ctx, "Event for compromised client short-circuited",
			logger.Fields{"tenant_id": event.TenantID, "client_id": event.ClientID})
		return result
	}

	d.metrics.RecordAnalysis(result.Level, result.DetectedPatterns, time.Since(start))

	if result.Level == models.ThreatCritical {
		d.logger.Warn(ctx, "Client classified critical and marked compromised", logger.Fields{
			"tenant_id": event.TenantID,
			"client_id": event.ClientID,
			"event_id":  result.EventID,
			"score":     result.Score,
			"patterns":  patternNames(result.DetectedPatterns),
		})
		d.publish(ctx, models.Alert{
			Type:           constants.AlertCriticalDetection,
			EventID:        result.EventID,
			TenantID:       result.TenantID,
			ClientID:       result.ClientID,
			Score:          result.Score,
			Level:          result.Level,
			Patterns:       result.DetectedPatterns,
			Signatures:     models.SignaturesFor(result.DetectedPatterns),
			Recommendation: result.Recommendation,
			Metadata:       event.Metadata,
			Timestamp:      now,
		})
	} else if result.Level > models.ThreatSafe {
		d.logger.Info(ctx, "Anomalous behavior detected", logger.Fields{
			"tenant_id": event.TenantID,
			"client_id": event.ClientID,
			"level":     result.Level.String(),
			"score":     result.Score,
		})
	}

	return result
}

// ensureCapacity makes room before a new key is admitted. Existing keys are
// never turned away. Concurrent creators may overshoot the cap by at most the
// number of goroutines racing past the size check.
func (d *AnomalyDetector) ensureCapacity(ctx context.Context, key models.ProfileKey, now time.Time) {
	if d.store.Size() < d.cfg.MaxProfiles || d.store.Contains(key) {
		return
	}

	d.evictMu.Lock()
	defer d.evictMu.Unlock()

	if d.store.Size() < d.cfg.MaxProfiles {
		return
	}

	if removed := d.store.EvictStale(now, d.cfg.StalenessWindow); removed > 0 {
		d.metrics.RecordEviction(constants.EvictionStale, removed)
		d.logger.Info(ctx, "Evicted stale profiles", logger.Int("removed", removed))
	}

	if d.store.Size() >= d.cfg.MaxProfiles {
		cleared := d.store.ClearAll()
		d.metrics.RecordEviction(constants.EvictionClearAll, cleared)
		d.logger.Warn(ctx, "Profile store still at capacity after stale eviction, cleared all profiles", logger.Fields{
			"cleared":      cleared,
			"max_profiles": d.cfg.MaxProfiles,
		})
	}
}

// EvictStale removes idle, non-compromised profiles. Used by the janitor.
func (d *AnomalyDetector) EvictStale(ctx context.Context) int {
	d.evictMu.Lock()
	defer d.evictMu.Unlock()

	removed := d.store.EvictStale(d.now(), d.cfg.StalenessWindow)
	if removed > 0 {
		d.metrics.RecordEviction(constants.EvictionStale, removed)
	}
	d.metrics.SetActiveProfiles(d.store.Size())
	d.logger.Debug(ctx, "Stale profile sweep finished", logger.Fields{
		"removed":         removed,
		"active_profiles": d.store.Size(),
	})
	return removed
}

// GetProfile returns a snapshot of one profile.
func (d *AnomalyDetector) GetProfile(ctx context.Context, tenantID, clientID string) (*models.ClientProfile, error) {
	if err := validateIdentity(tenantID, clientID); err != nil {
		return nil, err
	}
	p, ok := d.store.Get(models.ProfileKey{TenantID: tenantID, ClientID: clientID})
	if !ok {
		return nil, errors.ErrProfileNotFound(tenantID, clientID)
	}
	return p, nil
}

// GetAllProfiles returns a snapshot of every profile, or of one tenant's
// profiles when tenantID is set, ordered by tenant then client.
func (d *AnomalyDetector) GetAllProfiles(ctx context.Context, tenantID string) []*models.ClientProfile {
	var filter func(p *models.ClientProfile) bool
	if tenantID != "" {
		filter = func(p *models.ClientProfile) bool { return p.TenantID == tenantID }
	}

	profiles := d.store.Snapshot(filter)
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].TenantID != profiles[j].TenantID {
			return profiles[i].TenantID < profiles[j].TenantID
		}
		return profiles[i].ClientID < profiles[j].ClientID
	})
	return profiles
}

// MarkCompromised flags the client as compromised and pins its risk at 1.0.
// An unknown client gets a profile so it is blocked from its first event.
func (d *AnomalyDetector) MarkCompromised(ctx context.Context, tenantID, clientID string) (*models.ClientProfile, error) {
	if err := validateIdentity(tenantID, clientID); err != nil {
		return nil, err
	}

	now := d.now()
	key := models.ProfileKey{TenantID: tenantID, ClientID: clientID}
	d.ensureCapacity(ctx, key, now)

	var snapshot *models.ClientProfile
	wasCompromised := false
	d.store.Upsert(key, now, func(p *models.ClientProfile, _ bool) {
		wasCompromised = p.IsCompromised
		p.MarkCompromised(now)
		snapshot = p.Clone()
	})

	d.logger.Warn(ctx, "Client marked compromised by administrator",
		logger.Fields{"tenant_id": tenantID, "client_id": clientID})

	if !wasCompromised {
		d.publish(ctx, models.Alert{
			Type:           constants.AlertManualCompromise,
			TenantID:       tenantID,
			ClientID:       clientID,
			Score:          1.0,
			Level:          models.ThreatCritical,
			Recommendation: constants.RecommendationBlockPermanently,
			Timestamp:      now,
		})
	}
	return snapshot, nil
}

// ResetProfile deletes the profile, clearing the compromised flag with it.
func (d *AnomalyDetector) ResetProfile(ctx context.Context, tenantID, clientID string) error {
	if err := validateIdentity(tenantID, clientID); err != nil {
		return err
	}
	if !d.store.Remove(models.ProfileKey{TenantID: tenantID, ClientID: clientID}) {
		return errors.ErrProfileNotFound(tenantID, clientID)
	}
	d.metrics.SetActiveProfiles(d.store.Size())
	d.logger.Info(ctx, "Profile reset by administrator",
		logger.Fields{"tenant_id": tenantID, "client_id": clientID})
	return nil
}

// Health reports the detector status. A store at its cap is still
// operational, since the next new key evicts before it is admitted; only a
// store over the cap is degraded.
func (d *AnomalyDetector) Health() models.Health {
	size := d.store.Size()
	status := constants.HealthStatusOperational
	if size > d.cfg.MaxProfiles {
		status = constants.HealthStatusDegraded
	}
	return models.Health{
		Status:          status,
		EventsProcessed: d.eventsProcessed.Load(),
		ActiveProfiles:  uint64(size),
		MaxProfiles:     uint64(d.cfg.MaxProfiles),
		AtCapacity:      size >= d.cfg.MaxProfiles,
		UptimeSeconds:   uint64(d.now().Sub(d.startedAt) / time.Second),
	}
}

// Thresholds returns the effective rule thresholds.
func (d *AnomalyDetector) Thresholds() map[string]float64 {
	return d.matcher.Thresholds()
}

// publish runs outside any profile lock. A failure is logged and counted.
func (d *AnomalyDetector) publish(ctx context.Context, alert models.Alert) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, alert); err != nil {
		d.metrics.RecordAlertFailure(alert.Type)
		d.logger.Error(ctx, "Failed to publish alert", err, logger.Fields{
			"alert_type": string(alert.Type),
			"tenant_id":  alert.TenantID,
			"client_id":  alert.ClientID,
		})
	}
}

func validateIdentity(tenantID, clientID string) error {
	if !utils.ValidateNotEmpty(tenantID) {
		return errors.ErrMissingRequiredParameter("tenant_id")
	}
	if !utils.ValidateNotEmpty(clientID) {
		return errors.ErrMissingRequiredParameter("client_id")
	}
	return nil
}

func patternNames(patterns []models.BehaviorPattern) []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.String()
	}
	return names
}

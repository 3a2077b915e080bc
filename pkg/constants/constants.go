// Package constants defines system-wide constants for the Sentinel anomaly service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Detector Defaults
// ================================================================================

const (
	// DefaultMaxProfiles is the default cap on tracked (tenant, client) profiles
	DefaultMaxProfiles = 100000

	// DefaultStalenessWindow is the idle age after which a non-compromised profile may be evicted
	DefaultStalenessWindow = 24 * time.Hour

	// DefaultJanitorInterval is how often the background janitor sweeps stale profiles
	DefaultJanitorInterval = 5 * time.Minute

	// DefaultProfileShards is the number of lock shards in the in-memory profile store
	DefaultProfileShards = 64

	// ProfileKeySeparator joins tenant and client ids into a store key
	ProfileKeySeparator = "\x00"
)

// ================================================================================
// Indicator Keys
// ================================================================================

const (
	// IndicatorInjectionScore measures payload injection likelihood (SQLi, XSS)
	IndicatorInjectionScore = "injection_score"

	// IndicatorSprayScore measures one-password-many-accounts behavior
	IndicatorSprayScore = "spray_score"

	// IndicatorEnumerationScore measures user or path enumeration
	IndicatorEnumerationScore = "enumeration_score"

	// IndicatorResourceUsage measures resource consumption relative to quota
	IndicatorResourceUsage = "resource_usage"

	// IndicatorFailureRate is the recent authentication failure ratio
	IndicatorFailureRate = "failure_rate"

	// IndicatorTimingVariance is the request timing jitter in milliseconds
	IndicatorTimingVariance = "timing_variance"

	// IndicatorLocationRisk is the upstream geo mismatch risk
	IndicatorLocationRisk = "location_risk"
)

// ================================================================================
// Recommendation Constants
// ================================================================================

// Recommendation is the action the caller should take for a scored event
type Recommendation string

const (
	RecommendationAllow            Recommendation = "ALLOW"
	RecommendationLogWarning       Recommendation = "LOG_WARNING"
	RecommendationThrottle         Recommendation = "THROTTLE_REQUESTS"
	RecommendationRequireMFA       Recommendation = "REQUIRE_MFA"
	RecommendationIsolateSession   Recommendation = "ISOLATE_SESSION"
	RecommendationBlockPermanently Recommendation = "BLOCK_PERMANENTLY"
)

// ================================================================================
// Health Status Constants
// ================================================================================

const (
	// HealthStatusOperational is reported while the detector accepts events
	HealthStatusOperational = "operational"

	// HealthStatusDegraded is reported when the store holds more profiles than its cap
	HealthStatusDegraded = "degraded"
)

// ================================================================================
// Eviction Kinds
// ================================================================================

// EvictionKind labels how profiles were removed from the store
type EvictionKind string

const (
	// EvictionStale removes idle, non-compromised profiles
	EvictionStale EvictionKind = "stale"

	// EvictionClearAll wipes the store under sustained cardinality pressure
	EvictionClearAll EvictionKind = "clear_all"
)

// ================================================================================
// Alert Event Types
// ================================================================================

// AlertType represents the kind of alert emitted to downstream responders
type AlertType string

const (
	// AlertCriticalDetection is emitted when an event is classified Critical
	AlertCriticalDetection AlertType = "critical_detection"

	// AlertManualCompromise is emitted when an operator marks a client compromised
	AlertManualCompromise AlertType = "manual_compromise"
)

// ================================================================================
// Throttle Constants
// ================================================================================

const (
	// DefaultClientRPS is the per-client request budget before any tightening
	DefaultClientRPS = 100.0

	// DefaultClientBurst is the per-client burst size
	DefaultClientBurst = 100

	// DefaultThrottleIdleTTL is how long an untouched client limiter is retained
	DefaultThrottleIdleTTL = 30 * time.Minute
)

// ================================================================================
// Logging Level Constants
// ================================================================================

// LogLevel represents the logging level
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"
)

// ================================================================================
// HTTP Constants
// ================================================================================

const (
	// HeaderAPIKey carries the shared secret for the detection API
	HeaderAPIKey = "X-API-Key"

	// HeaderRequestID carries the request correlation id
	HeaderRequestID = "X-Request-ID"

	// DefaultServicePort is the default HTTP service port
	DefaultServicePort = 8080

	// DefaultGRPCPort is the default gRPC health port
	DefaultGRPCPort = 50051

	// DefaultShutdownTimeout is the graceful shutdown timeout (30 seconds)
	DefaultShutdownTimeout = 30 * time.Second

	// MaxRequestBodyBytes bounds a detect request body
	MaxRequestBodyBytes = 1 << 20
)

//Personal.AI order the ending

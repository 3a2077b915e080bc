package models

import (
	"time"

	"github.com/turtacn/sentinel/pkg/constants"
)

// AnomalyScore is the immutable result of analyzing one event.
type AnomalyScore struct {
	EventID          string                   `json:"event_id"`
	TenantID         string                   `json:"tenant_id"`
	ClientID         string                   `json:"client_id"`
	Score            float64                  `json:"score"`
	Level            ThreatLevel              `json:"level"`
	DetectedPatterns []BehaviorPattern        `json:"detected_patterns"`
	Recommendation   constants.Recommendation `json:"recommendation"`
	Timestamp        time.Time                `json:"timestamp"`
}

// Health is the detector's self-reported status.
type Health struct {
	Status          string `json:"status"`
	EventsProcessed uint64 `json:"events_processed"`
	ActiveProfiles  uint64 `json:"active_profiles"`
	MaxProfiles     uint64 `json:"max_profiles"`
	AtCapacity      bool   `json:"at_capacity"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
}

// Alert is published to downstream responders for critical outcomes.
type Alert struct {
	Type           constants.AlertType      `json:"type"`
	EventID        string                   `json:"event_id,omitempty"`
	TenantID       string                   `json:"tenant_id"`
	ClientID       string                   `json:"client_id"`
	Score          float64                  `json:"score"`
	Level          ThreatLevel              `json:"level"`
	Patterns       []BehaviorPattern        `json:"patterns,omitempty"`
	Signatures     []Signature              `json:"signatures,omitempty"`
	Recommendation constants.Recommendation `json:"recommendation"`
	Metadata       map[string]string        `json:"metadata,omitempty"`
	Timestamp      time.Time                `json:"timestamp"`
}

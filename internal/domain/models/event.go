package models

import "time"

// Event is a single authentication/access observation for a client within a tenant.
// Indicators are pre-computed upstream; keys the matcher does not know are ignored.
type Event struct {
	TenantID   string             `json:"tenant_id"`
	ClientID   string             `json:"client_id"`
	Indicators map[string]float64 `json:"indicators"`
	// Confidence is informational and not consumed by scoring.
	Confidence float64           `json:"confidence"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

package models

import (
	"time"

	"github.com/turtacn/sentinel/pkg/constants"
)

// ProfileKey identifies a profile. Tenant and client are never merged.
type ProfileKey struct {
	TenantID string
	ClientID string
}

// String renders the key for logs, metrics and shard hashing.
func (k ProfileKey) String() string {
	return k.TenantID + constants.ProfileKeySeparator + k.ClientID
}

// ClientProfile is the running behavioral state of one (tenant, client) pair.
type ClientProfile struct {
	TenantID          string      `json:"tenant_id"`
	ClientID          string      `json:"client_id"`
	FirstSeen         time.Time   `json:"first_seen"`
	LastSeen          time.Time   `json:"last_seen"`
	TotalEvents       uint64      `json:"total_events"`
	AverageConfidence float64     `json:"average_confidence"`
	RiskScore         float64     `json:"risk_score"`
	IsCompromised     bool        `json:"is_compromised"`
	CompromisedAt     *time.Time  `json:"compromised_at,omitempty"`
	ThreatLevel       ThreatLevel `json:"threat_level"`
}

// NewClientProfile creates an empty profile first seen at now.
func NewClientProfile(key ProfileKey, now time.Time) *ClientProfile {
	return &ClientProfile{
		TenantID:    key.TenantID,
		ClientID:    key.ClientID,
		FirstSeen:   now,
		LastSeen:    now,
		ThreatLevel: ThreatSafe,
	}
}

// Key returns the profile identity.
func (p *ClientProfile) Key() ProfileKey {
	return ProfileKey{TenantID: p.TenantID, ClientID: p.ClientID}
}

// Touch records one event observed at now with the given confidence.
func (p *ClientProfile) Touch(now time.Time, confidence float64) {
	p.LastSeen = now
	p.TotalEvents++
	n := float64(p.TotalEvents)
	p.AverageConfidence = (p.AverageConfidence*(n-1) + confidence) / n
}

// MarkCompromised sets the sticky flag. Risk is pinned at 1.0 when the flag is set.
func (p *ClientProfile) MarkCompromised(now time.Time) {
	if !p.IsCompromised {
		t := now
		p.CompromisedAt = &t
	}
	p.IsCompromised = true
	p.RiskScore = 1.0
	p.ThreatLevel = ThreatCritical
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (p *ClientProfile) Clone() *ClientProfile {
	c := *p
	if p.CompromisedAt != nil {
		t := *p.CompromisedAt
		c.CompromisedAt = &t
	}
	return &c
}

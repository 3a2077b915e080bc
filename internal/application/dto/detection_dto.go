package dto

import (
	"time"

	"github.com/turtacn/sentinel/internal/domain/models"
)

// DetectRequest is the body of POST /api/v1/detect.
type DetectRequest struct {
	TenantID   string             `json:"tenant_id" binding:"required,max=128,printascii"`
	ClientID   string             `json:"client_id" binding:"required,max=256,printascii"`
	Indicators map[string]float64 `json:"indicators" binding:"max=64"`
	Confidence float64            `json:"confidence" binding:"min=0,max=1"`
	Timestamp  *time.Time         `json:"timestamp,omitempty"`
	Metadata   map[string]string  `json:"metadata,omitempty" binding:"max=32"`
}

// ToEvent converts the request into a domain event. A missing timestamp
// becomes now.
func (r *DetectRequest) ToEvent(now time.Time) models.Event {
	ts := now
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		ts = *r.Timestamp
	}
	return models.Event{
		TenantID:   r.TenantID,
		ClientID:   r.ClientID,
		Indicators: r.Indicators,
		Confidence: r.Confidence,
		Timestamp:  ts,
		Metadata:   r.Metadata,
	}
}

// DetectResponse is the detection result plus the caller's throttle state.
type DetectResponse struct {
	models.AnomalyScore
	RateLimited bool `json:"rate_limited"`
}

// ProfileListResponse wraps a tenant profile snapshot.
type ProfileListResponse struct {
	TenantID string                  `json:"tenant_id"`
	Count    int                     `json:"count"`
	Profiles []*models.ClientProfile `json:"profiles"`
}

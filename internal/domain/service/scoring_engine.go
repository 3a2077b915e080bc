package service

import (
	"math"
	"time"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/utils"
)

const (
	// scorePrecision is the number of decimals kept before classification,
	// so 0.6*1.5 lands on 0.9 instead of 0.8999999999999999.
	scorePrecision = 9

	// riskRetention is the weight kept by the previous risk when a score improves.
	riskRetention = 0.9
)

// classificationBands lists the inclusive lower bound of each level, highest first.
var classificationBands = [...]struct {
	floor float64
	level models.ThreatLevel
}{
	{0.9, models.ThreatCritical},
	{0.75, models.ThreatHigh},
	{0.5, models.ThreatMedium},
	{0.25, models.ThreatLow},
}

// ScoringEngine turns matched patterns into a score, a level and a profile update.
// ScoringEngine 将匹配的模式转换为分数、威胁级别以及画像更新。
type ScoringEngine struct{}

// NewScoringEngine creates a ScoringEngine.
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{}
}

// Score combines the patterns into a value in [0,1]. Only failure_rate
// amplifies pattern severity. PayloadInjection forces 1.0 and reports a
// critical override.
func (e *ScoringEngine) Score(patterns []models.BehaviorPattern, indicators map[string]float64) (float64, bool) {
	multiplier := 1.0
	if fr, ok := SanitizedIndicator(indicators, constants.IndicatorFailureRate); ok {
		multiplier += fr
	}

	raw := 0.0
	override := false
	for _, p := range patterns {
		if p == models.PatternPayloadInjection {
			override = true
		}
		raw += math.Min(1.0, p.Severity()*multiplier)
	}
	if override {
		raw = 1.0
	}

	return utils.RoundTo(utils.Clamp(raw, 0, 1), scorePrecision), override
}

// Classify maps a score to its band. Lower bounds are inclusive and the
// critical override wins over the numeric value.
func (e *ScoringEngine) Classify(score float64, criticalOverride bool) models.ThreatLevel {
	if criticalOverride {
		return models.ThreatCritical
	}
	score = utils.RoundTo(score, scorePrecision)
	for _, band := range classificationBands {
		if score >= band.floor {
			return band.level
		}
	}
	return models.ThreatSafe
}

// Recommendation returns the action for a level.
func (e *ScoringEngine) Recommendation(level models.ThreatLevel) constants.Recommendation {
	return level.Recommendation()
}

// UpdateRisk applies the asymmetric decay to the profile and caches level.
// A worse score replaces the risk at once; a better one moves it 10% of the way.
// A Critical level sets the sticky compromised flag. The result reports
// whether this call set it.
func (e *ScoringEngine) UpdateRisk(p *models.ClientProfile, score float64, level models.ThreatLevel, now time.Time) bool {
	if score > p.RiskScore {
		p.RiskScore = score
	} else {
		p.RiskScore = utils.RoundTo(p.RiskScore*riskRetention+score*(1-riskRetention), scorePrecision)
	}
	p.ThreatLevel = level

	if level == models.ThreatCritical && !p.IsCompromised {
		p.MarkCompromised(now)
		return true
	}
	return false
}

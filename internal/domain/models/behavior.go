package models

import (
	"fmt"

	"github.com/turtacn/sentinel/pkg/constants"
)

// BehaviorPattern is a named category of suspicious activity with a fixed base severity.
type BehaviorPattern uint8

const (
	PatternNormal BehaviorPattern = iota
	PatternRapidFailures
	PatternEnumeration
	PatternPayloadInjection
	PatternTimingAttack
	PatternResourceAbuse
	PatternDeviceChange
	PatternAnomalousLocation
	PatternCredentialSpray

	patternCount
)

var patternNames = [...]string{
	PatternNormal:            "Normal",
	PatternRapidFailures:     "RapidFailures",
	PatternEnumeration:       "Enumeration",
	PatternPayloadInjection:  "PayloadInjection",
	PatternTimingAttack:      "TimingAttack",
	PatternResourceAbuse:     "ResourceAbuse",
	PatternDeviceChange:      "DeviceChange",
	PatternAnomalousLocation: "AnomalousLocation",
	PatternCredentialSpray:   "CredentialSpray",
}

// patternSeverity holds the base severity weight of every pattern.
// DeviceChange is reserved: it has a weight but no rule emits it.
var patternSeverity = [...]float64{
	PatternNormal:            0.0,
	PatternRapidFailures:     0.6,
	PatternEnumeration:       0.8,
	PatternPayloadInjection:  1.0,
	PatternTimingAttack:      0.5,
	PatternResourceAbuse:     0.7,
	PatternDeviceChange:      0.4,
	PatternAnomalousLocation: 0.3,
	PatternCredentialSpray:   0.9,
}

// Tables must cover every pattern; a missing entry fails the build.
var (
	_ = [1]struct{}{}[len(patternNames)-int(patternCount)]
	_ = [1]struct{}{}[len(patternSeverity)-int(patternCount)]
)

// AllPatterns returns every variant in declaration order.
func AllPatterns() []BehaviorPattern {
	out := make([]BehaviorPattern, 0, patternCount)
	for p := BehaviorPattern(0); p < patternCount; p++ {
		out = append(out, p)
	}
	return out
}

// Severity returns the fixed base severity of the pattern.
func (p BehaviorPattern) Severity() float64 {
	if p >= patternCount {
		return 0
	}
	return patternSeverity[p]
}

func (p BehaviorPattern) String() string {
	if p >= patternCount {
		return fmt.Sprintf("BehaviorPattern(%d)", uint8(p))
	}
	return patternNames[p]
}

// MarshalText encodes the pattern as its variant name.
func (p BehaviorPattern) MarshalText() ([]byte, error) {
	if p >= patternCount {
		return nil, fmt.Errorf("unknown behavior pattern %d", uint8(p))
	}
	return []byte(patternNames[p]), nil
}

// UnmarshalText decodes a variant name.
func (p *BehaviorPattern) UnmarshalText(text []byte) error {
	for i, name := range patternNames {
		if name == string(text) {
			*p = BehaviorPattern(i)
			return nil
		}
	}
	return fmt.Errorf("unknown behavior pattern %q", string(text))
}

// ThreatLevel is the ordered classification band derived from a score.
type ThreatLevel uint8

const (
	ThreatSafe ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical

	threatLevelCount
)

var threatLevelNames = [...]string{
	ThreatSafe:     "Safe",
	ThreatLow:      "Low",
	ThreatMedium:   "Medium",
	ThreatHigh:     "High",
	ThreatCritical: "Critical",
}

var threatRecommendations = [...]constants.Recommendation{
	ThreatSafe:     constants.RecommendationAllow,
	ThreatLow:      constants.RecommendationLogWarning,
	ThreatMedium:   constants.RecommendationThrottle,
	ThreatHigh:     constants.RecommendationRequireMFA,
	ThreatCritical: constants.RecommendationIsolateSession,
}

var (
	_ = [1]struct{}{}[len(threatLevelNames)-int(threatLevelCount)]
	_ = [1]struct{}{}[len(threatRecommendations)-int(threatLevelCount)]
)

// AllThreatLevels returns every level from Safe to Critical.
func AllThreatLevels() []ThreatLevel {
	out := make([]ThreatLevel, 0, threatLevelCount)
	for l := ThreatLevel(0); l < threatLevelCount; l++ {
		out = append(out, l)
	}
	return out
}

// Recommendation maps the level to the action the caller should take.
func (l ThreatLevel) Recommendation() constants.Recommendation {
	if l >= threatLevelCount {
		return constants.RecommendationIsolateSession
	}
	return threatRecommendations[l]
}

func (l ThreatLevel) String() string {
	if l >= threatLevelCount {
		return fmt.Sprintf("ThreatLevel(%d)", uint8(l))
	}
	return threatLevelNames[l]
}

// MarshalText encodes the level as its variant name.
func (l ThreatLevel) MarshalText() ([]byte, error) {
	if l >= threatLevelCount {
		return nil, fmt.Errorf("unknown threat level %d", uint8(l))
	}
	return []byte(threatLevelNames[l]), nil
}

// UnmarshalText decodes a variant name.
func (l *ThreatLevel) UnmarshalText(text []byte) error {
	for i, name := range threatLevelNames {
		if name == string(text) {
			*l = ThreatLevel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown threat level %q", string(text))
}

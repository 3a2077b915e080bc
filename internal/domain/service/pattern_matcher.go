package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
	"github.com/turtacn/sentinel/pkg/utils"
)

// timingVarianceFloor is the exclusive lower bound of the timing rule.
// A constant zero variance is a placeholder, not a signal.
const timingVarianceFloor = 0.0

// indicatorRule binds one behavior pattern to the indicator that triggers it.
type indicatorRule struct {
	pattern   models.BehaviorPattern
	indicator string
	// threshold is an exclusive lower bound, or the exclusive upper bound when banded.
	threshold float64
	// banded rules fire on timingVarianceFloor < v < threshold.
	banded bool
}

func (r indicatorRule) fires(v float64) bool {
	if r.banded {
		return v > timingVarianceFloor && v < r.threshold
	}
	return v > r.threshold
}

// defaultRules is the fixed evaluation order. DeviceChange has no rule.
var defaultRules = []indicatorRule{
	{pattern: models.PatternPayloadInjection, indicator: constants.IndicatorInjectionScore, threshold: 0.8},
	{pattern: models.PatternCredentialSpray, indicator: constants.IndicatorSprayScore, threshold: 0.7},
	{pattern: models.PatternEnumeration, indicator: constants.IndicatorEnumerationScore, threshold: 0.7},
	{pattern: models.PatternResourceAbuse, indicator: constants.IndicatorResourceUsage, threshold: 0.85},
	{pattern: models.PatternRapidFailures, indicator: constants.IndicatorFailureRate, threshold: 0.4},
	{pattern: models.PatternTimingAttack, indicator: constants.IndicatorTimingVariance, threshold: 10, banded: true},
	{pattern: models.PatternAnomalousLocation, indicator: constants.IndicatorLocationRisk, threshold: 0.8},
}

// SanitizedIndicator reads an indicator the way the rules see it.
// NaN counts as not measured. Ratio indicators are clamped to [0,1];
// timing_variance is only floored at zero.
func SanitizedIndicator(indicators map[string]float64, key string) (float64, bool) {
	v, ok := indicators[key]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	if key == constants.IndicatorTimingVariance {
		return math.Max(v, 0), true
	}
	return utils.Clamp(v, 0, 1), true
}

// PatternMatcher evaluates an indicator map against the rule table.
// It holds no mutable state and is safe for concurrent use.
// PatternMatcher 根据规则表评估指标映射，无状态，可并发使用。
type PatternMatcher struct {
	rules []indicatorRule
}

// NewPatternMatcher builds a matcher. overrides maps an indicator key to a
// replacement threshold; an unknown key or an out-of-range value is a
// configuration error.
func NewPatternMatcher(overrides map[string]float64) (*PatternMatcher, error) {
	rules := make([]indicatorRule, len(defaultRules))
	copy(rules, defaultRules)

	// Sorted so the reported error is deterministic.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := overrides[key]
		idx := ruleIndex(rules, key)
		if idx < 0 {
			return nil, errors.ErrConfiguration(fmt.Sprintf("unrecognized threshold override key %q", key)).
				WithMetadata("key", key)
		}
		if err := validateThreshold(rules[idx], value); err != nil {
			return nil, err
		}
		rules[idx].threshold = value
	}

	return &PatternMatcher{rules: rules}, nil
}

func ruleIndex(rules []indicatorRule, key string) int {
	for i, r := range rules {
		if r.indicator == key {
			return i
		}
	}
	return -1
}

func validateThreshold(rule indicatorRule, value float64) error {
	if !utils.IsFinite(value) {
		return errors.ErrConfiguration(fmt.Sprintf("threshold for %q must be finite", rule.indicator)).
			WithMetadata("key", rule.indicator)
	}
	if rule.banded {
		if value <= timingVarianceFloor {
			return errors.ErrConfiguration(fmt.Sprintf("threshold for %q must be greater than %g", rule.indicator, timingVarianceFloor)).
				WithMetadata("key", rule.indicator)
		}
		return nil
	}
	if value < 0 || value > 1 {
		return errors.ErrConfiguration(fmt.Sprintf("threshold for %q must be within [0,1]", rule.indicator)).
			WithMetadata("key", rule.indicator)
	}
	return nil
}

// Detect returns the matched patterns in rule order. Each pattern appears at
// most once, and an absent indicator never fires its rule.
func (m *PatternMatcher) Detect(indicators map[string]float64) []models.BehaviorPattern {
	patterns := make([]models.BehaviorPattern, 0, len(m.rules))
	for _, rule := range m.rules {
		v, ok := SanitizedIndicator(indicators, rule.indicator)
		if !ok {
			continue
		}
		if rule.fires(v) {
			patterns = append(patterns, rule.pattern)
		}
	}
	return patterns
}

// Thresholds returns the effective threshold per indicator key.
func (m *PatternMatcher) Thresholds() map[string]float64 {
	out := make(map[string]float64, len(m.rules))
	for _, r := range m.rules {
		out[r.indicator] = r.threshold
	}
	return out
}

// IndicatorKeys lists the keys that accept threshold overrides, in rule order.
func IndicatorKeys() []string {
	keys := make([]string, 0, len(defaultRules))
	for _, r := range defaultRules {
		keys = append(keys, r.indicator)
	}
	return keys
}

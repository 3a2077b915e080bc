// Package policy loads detection threshold overrides from a YAML policy file.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/sentinel/pkg/errors"
)

// ThresholdPolicy is the on-disk shape of a threshold policy file.
// ThresholdPolicy 是阈值策略文件在磁盘上的结构。
//
//	version: 1
//	thresholds:
//	  failure_rate: 0.35
//	  timing_variance: 15
type ThresholdPolicy struct {
	// Version is informational and allows future format changes.
	Version int `yaml:"version"`
	// Thresholds maps an indicator key to its replacement threshold.
	// Thresholds 将指标键映射到替换阈值。
	Thresholds map[string]float64 `yaml:"thresholds"`
}

// LoadThresholdPolicy reads a policy file. Key validation is left to the
// pattern matcher so file and inline overrides are checked the same way.
func LoadThresholdPolicy(path string) (*ThresholdPolicy, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrConfiguration(fmt.Sprintf("failed to read threshold policy file %s", path)).WithCause(err)
	}

	var policy ThresholdPolicy
	if err := yaml.Unmarshal(file, &policy); err != nil {
		return nil, errors.ErrConfiguration(fmt.Sprintf("failed to parse threshold policy file %s", path)).WithCause(err)
	}
	if policy.Thresholds == nil {
		policy.Thresholds = map[string]float64{}
	}
	return &policy, nil
}

// MergeThresholds combines file and inline overrides. Inline values win.
func MergeThresholds(fromFile, inline map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(fromFile)+len(inline))
	for k, v := range fromFile {
		merged[k] = v
	}
	for k, v := range inline {
		merged[k] = v
	}
	return merged
}

// ResolveThresholds loads path when set and merges it under inline.
func ResolveThresholds(path string, inline map[string]float64) (map[string]float64, error) {
	if path == "" {
		return MergeThresholds(nil, inline), nil
	}
	policy, err := LoadThresholdPolicy(path)
	if err != nil {
		return nil, err
	}
	return MergeThresholds(policy.Thresholds, inline), nil
}

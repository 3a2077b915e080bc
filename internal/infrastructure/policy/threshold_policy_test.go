package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sentinel/pkg/errors"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadThresholdPolicy(t *testing.T) {
	path := writePolicy(t, "version: 1\nthresholds:\n  failure_rate: 0.35\n  timing_variance: 15\n")

	policy, err := LoadThresholdPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 1, policy.Version)
	assert.Equal(t, map[string]float64{"failure_rate": 0.35, "timing_variance": 15}, policy.Thresholds)
}

func TestLoadThresholdPolicy_EmptyThresholds(t *testing.T) {
	policy, err := LoadThresholdPolicy(writePolicy(t, "version: 1\n"))
	require.NoError(t, err)
	assert.NotNil(t, policy.Thresholds)
	assert.Empty(t, policy.Thresholds)
}

func TestLoadThresholdPolicy_Errors(t *testing.T) {
	_, err := LoadThresholdPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = LoadThresholdPolicy(writePolicy(t, "thresholds: [not, a, map]\n"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestResolveThresholds_InlineWins(t *testing.T) {
	path := writePolicy(t, "thresholds:\n  failure_rate: 0.35\n  location_risk: 0.6\n")

	merged, err := ResolveThresholds(path, map[string]float64{"failure_rate": 0.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"failure_rate": 0.5, "location_risk": 0.6}, merged)

	merged, err = ResolveThresholds("", map[string]float64{"spray_score": 0.9})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"spray_score": 0.9}, merged)
}

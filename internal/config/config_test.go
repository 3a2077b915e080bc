package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultServicePort, cfg.Server.Port)
	assert.Equal(t, constants.DefaultGRPCPort, cfg.Server.GRPCPort)
	assert.Equal(t, constants.DefaultMaxProfiles, cfg.Detector.MaxProfiles)
	assert.Equal(t, constants.DefaultStalenessWindow, cfg.Detector.StalenessWindow)
	assert.Equal(t, constants.DefaultJanitorInterval, cfg.Detector.JanitorInterval)
	assert.Equal(t, constants.DefaultProfileShards, cfg.Detector.Shards)
	assert.True(t, cfg.Throttle.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Kafka.WriteTimeout)
	assert.Empty(t, cfg.Auth.APIKey)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
auth:
  api_key: s3cret
detector:
  max_profiles: 500
  staleness_window: 2h
  thresholds:
    failure_rate: 0.3
    timing_variance: 20
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  alert_topic: alerts
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.APIKey)
	assert.Equal(t, 500, cfg.Detector.MaxProfiles)
	assert.Equal(t, 2*time.Hour, cfg.Detector.StalenessWindow)
	assert.Equal(t, map[string]float64{"failure_rate": 0.3, "timing_variance": 20}, cfg.Detector.Thresholds)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "alerts", cfg.Kafka.AlertTopic)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "detector:\n  max_profiles: 500\n")
	t.Setenv("SENTINEL_DETECTOR_MAX_PROFILES", "42")
	t.Setenv("SENTINEL_AUTH_API_KEY", "from-env")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Detector.MaxProfiles)
	assert.Equal(t, "from-env", cfg.Auth.APIKey)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero max profiles", "detector:\n  max_profiles: 0\n"},
		{"negative staleness", "detector:\n  staleness_window: -1h\n"},
		{"unknown threshold key", "detector:\n  thresholds:\n    mouse_speed: 0.5\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n"},
		{"bad sampling rate", "tracing:\n  sampling_rate: 2\n"},
		{"unknown log level", "log:\n  level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestValidateThresholdKeys(t *testing.T) {
	assert.NoError(t, ValidateThresholdKeys(nil))
	assert.NoError(t, ValidateThresholdKeys(map[string]float64{"injection_score": 0.9, "location_risk": 0.5}))
	assert.Error(t, ValidateThresholdKeys(map[string]float64{"injection_score": 0.9, "bogus": 1}))
}

func TestLoader_WatchReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, nil)
	_, err := loader.Load()
	require.NoError(t, err)

	var level atomic.Value
	loader.Watch(func(cfg *Config) { level.Store(cfg.Log.Level) })

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		v, _ := level.Load().(string)
		return v == "debug"
	}, 5*time.Second, 20*time.Millisecond)
}

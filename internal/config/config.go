package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Detector DetectorConfig `mapstructure:"detector"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     int           `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout    int           `mapstructure:"write_timeout"` // in seconds
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnablePprof     bool          `mapstructure:"enable_pprof"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCAddr returns the gRPC listen address.
func (c *ServerConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// AuthConfig holds the shared secret for the API. An empty key disables the check.
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DetectorConfig configures the anomaly detector core.
type DetectorConfig struct {
	MaxProfiles     int                `mapstructure:"max_profiles"`
	StalenessWindow time.Duration      `mapstructure:"staleness_window"`
	JanitorInterval time.Duration      `mapstructure:"janitor_interval"`
	Shards          int                `mapstructure:"shards"`
	Thresholds      map[string]float64 `mapstructure:"thresholds"`
	ThresholdsFile  string             `mapstructure:"thresholds_file"`
}

type ThrottleConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	AlertTopic   string        `mapstructure:"alert_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	Environment    string  `mapstructure:"environment"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Detector.MaxProfiles <= 0 {
		return errors.ErrConfiguration("detector.max_profiles must be greater than zero")
	}
	if c.Detector.StalenessWindow < 0 {
		return errors.ErrConfiguration("detector.staleness_window must not be negative")
	}
	if err := ValidateThresholdKeys(c.Detector.Thresholds); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.ErrConfiguration(fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return errors.ErrConfiguration(fmt.Sprintf("server.grpc_port %d is out of range", c.Server.GRPCPort))
	}
	if c.Throttle.Enabled && (c.Throttle.RPS <= 0 || c.Throttle.Burst <= 0) {
		return errors.ErrConfiguration("throttle.rps and throttle.burst must be positive when throttling is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.AlertTopic == "") {
		return errors.ErrConfiguration("kafka.brokers and kafka.alert_topic are required when kafka is enabled")
	}
	switch constants.LogLevel(c.Log.Level) {
	case constants.LogLevelDebug, constants.LogLevelInfo, constants.LogLevelWarn, constants.LogLevelError:
	default:
		return errors.ErrConfiguration(fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return errors.ErrConfiguration("tracing.sampling_rate must be within [0,1]")
	}
	return nil
}

// ValidateThresholdKeys rejects override keys no rule reads.
func ValidateThresholdKeys(thresholds map[string]float64) error {
	known := make(map[string]struct{})
	for _, k := range service.IndicatorKeys() {
		known[k] = struct{}{}
	}

	var unknown []string
	for k := range thresholds {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errors.ErrConfiguration(fmt.Sprintf("unrecognized threshold override keys: %v", unknown)).
		WithMetadata("keys", unknown)
}

//Personal.AI order the ending

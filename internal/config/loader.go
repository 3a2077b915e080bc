package config

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
	"github.com/turtacn/sentinel/pkg/logger"
)

// EnvPrefix is the prefix of every environment override, e.g. SENTINEL_DETECTOR_MAX_PROFILES.
const EnvPrefix = "SENTINEL"

// Loader reads configuration with viper and can watch the file for changes.
type Loader struct {
	v      *viper.Viper
	logger logger.Logger
	mu     sync.Mutex
}

// NewLoader creates a loader. configFile may be empty, in which case
// config.yaml is looked up in /etc/sentinel/ and the working directory.
func NewLoader(configFile string, log logger.Logger) *Loader {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/sentinel/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Loader{v: v, logger: log.WithComponent("ConfigLoader")}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", constants.DefaultServicePort)
	v.SetDefault("server.grpc_port", constants.DefaultGRPCPort)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.shutdown_timeout", constants.DefaultShutdownTimeout)
	v.SetDefault("server.enable_pprof", false)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("auth.api_key", "")

	v.SetDefault("detector.max_profiles", constants.DefaultMaxProfiles)
	v.SetDefault("detector.staleness_window", constants.DefaultStalenessWindow)
	v.SetDefault("detector.janitor_interval", constants.DefaultJanitorInterval)
	v.SetDefault("detector.shards", constants.DefaultProfileShards)
	v.SetDefault("detector.thresholds_file", "")

	v.SetDefault("throttle.enabled", true)
	v.SetDefault("throttle.rps", constants.DefaultClientRPS)
	v.SetDefault("throttle.burst", constants.DefaultClientBurst)
	v.SetDefault("throttle.idle_ttl", constants.DefaultThrottleIdleTTL)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.alert_topic", "sentinel-alerts")
	v.SetDefault("kafka.write_timeout", "10s")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "1s")
	v.SetDefault("kafka.required_acks", 1)

	v.SetDefault("log.level", string(constants.LogLevelInfo))
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "sentinel")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sampling_rate", 0.1)
}

// Load reads, unmarshals and validates the configuration. A missing config
// file is not an error; defaults and environment variables still apply.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.ErrConfiguration("failed to read config file").WithCause(err)
		}
		l.logger.Info(context.Background(), "No config file found, using defaults and environment")
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrConfiguration("failed to unmarshal config").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the file on change and hands every valid result to onChange.
// Invalid edits are logged and ignored.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		l.mu.Lock()
		cfg, err := l.unmarshal()
		l.mu.Unlock()
		if err != nil {
			l.logger.Error(context.Background(), "Ignoring invalid config change", err, logger.String("file", e.Name))
			return
		}
		l.logger.Info(context.Background(), "Config file changed", logger.String("file", e.Name))
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// ConfigFileUsed returns the path of the file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(configFile string, log logger.Logger) (*Config, error) {
	return NewLoader(configFile, log).Load()
}

//Personal.AI order the ending

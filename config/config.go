package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	Port     string `envconfig:"PORT" default:"3000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StripMarkdown bool `envconfig:"STRIP_MARKDOWN" default:"false"`
	MaxTextLength int  `envconfig:"MAX_TEXT_LENGTH" default:"10000"`

	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	Valkey  ValkeyConfig
	History HistoryConfig
	Events  EventsConfig
}

type ValkeyConfig struct {
	Address  string        `envconfig:"VALKEY_INIT_ADDRESS"`
	Password string        `envconfig:"VALKEY_PASSWORD"`
	TLS      bool          `envconfig:"VALKEY_TLS" default:"false"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	// OpTimeout bounds the whole cache step of a request, retries included.
	OpTimeout time.Duration `envconfig:"CACHE_OP_TIMEOUT" default:"250ms"`
}

// Enabled reports whether the result cache should be wired.
func (v ValkeyConfig) Enabled() bool { return v.Address != "" }

type HistoryConfig struct {
	AWSRegion     string        `envconfig:"AWS_REGION" default:"us-west-2"`
	AWSEndpoint   string        `envconfig:"AWS_ENDPOINT"`
	Table         string        `envconfig:"ANALYSIS_HISTORY_TABLE"`
	BatchSize     int           `envconfig:"HISTORY_BATCH_SIZE" default:"25"`
	FlushInterval time.Duration `envconfig:"HISTORY_FLUSH_INTERVAL" default:"5s"`
}

func (h HistoryConfig) Enabled() bool { return h.Table != "" }

type EventsConfig struct {
	Broker string `envconfig:"KAFKA_BROKER" default:"localhost:29092"`
	Topic  string `envconfig:"ANALYSIS_EVENTS_TOPIC"`
}

func (e EventsConfig) Enabled() bool { return e.Topic != "" }

// AppEnvironment returns APP_ENV, defaulting to "dev". It is read before
// Load so the matching env file can be loaded first.
func AppEnvironment() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return env
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("[Config] failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MaxTextLength <= 0 {
		return errors.New("MAX_TEXT_LENGTH must be positive")
	}
	if cfg.History.BatchSize < 1 || cfg.History.BatchSize > 25 {
		return fmt.Errorf("HISTORY_BATCH_SIZE must be between 1 and 25, got %d", cfg.History.BatchSize)
	}
	if cfg.History.FlushInterval <= 0 {
		return errors.New("HISTORY_FLUSH_INTERVAL must be positive")
	}
	if cfg.Valkey.CacheTTL < time.Second {
		return fmt.Errorf("CACHE_TTL must be at least 1s, got %s", cfg.Valkey.CacheTTL)
	}
	if cfg.Valkey.OpTimeout <= 0 {
		return errors.New("CACHE_OP_TIMEOUT must be positive")
	}
	return nil
}

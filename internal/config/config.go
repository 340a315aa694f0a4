// Package config loads all service configuration from the environment.
// Components receive the values they need explicitly; nothing reads env
// vars after startup.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port    string `envconfig:"API_SERVICE_PORT" default:":3001"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:3001"`

	// Default lifetime for links created without an explicit expiryDays.
	URLExpiryDays int `envconfig:"URL_EXPIRY_DAYS" default:"30"`
}

type DatabaseConfig struct {
	URL          string `envconfig:"DB_URL" required:"true"`
	GormLogLevel string `envconfig:"GORM_LOG_LEVEL" default:"warn"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`

	// Transport timeout for every cache round-trip. Cache failures degrade
	// to the store, so this bounds how long a Redis outage can stall a
	// request.
	Timeout time.Duration `envconfig:"REDIS_TIMEOUT" default:"2s"`
}

type RabbitMQConfig struct {
	URL        string `envconfig:"RABBITMQ_URL" required:"true"`
	ClickQueue string `envconfig:"CLICK_QUEUE_NAME" default:"click_events"`
}

type AuthConfig struct {
	// No default on purpose: shipping a known secret lets anyone forge
	// tokens, so absence is a startup failure in every environment.
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"JWT_EXPIRES_IN" default:"168h"`
}

type RateLimitConfig struct {
	GeneralMax    int           `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"500"`
	GeneralWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	AuthMax       int           `envconfig:"AUTH_RATE_LIMIT_MAX" default:"5"`
	AuthWindow    time.Duration `envconfig:"AUTH_RATE_LIMIT_WINDOW" default:"15m"`
	CreateMax     int           `envconfig:"CREATE_RATE_LIMIT_MAX" default:"30"`
	CreateWindow  time.Duration `envconfig:"CREATE_RATE_LIMIT_WINDOW" default:"1m"`
}

type LogConfig struct {
	Level   string `envconfig:"LOG_LEVEL" default:"info"`
	Format  string `envconfig:"LOG_FORMAT" default:"json"`
	Service string `envconfig:"LOG_SERVICE"`
	Env     string `envconfig:"APP_ENV" default:"development"`
	Output  string `envconfig:"LOG_OUTPUT" default:"stdout"`
}

func (c *ServerConfig) Validate() error {
	if c.URLExpiryDays <= 0 {
		return fmt.Errorf("URL expiry days must be positive")
	}
	return nil
}

func (c *AuthConfig) Validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret must be at least 16 bytes")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	return nil
}

func (c *RateLimitConfig) Validate() error {
	for _, v := range []struct {
		name string
		max  int
		win  time.Duration
	}{
		{"general", c.GeneralMax, c.GeneralWindow},
		{"auth", c.AuthMax, c.AuthWindow},
		{"create", c.CreateMax, c.CreateWindow},
	} {
		if v.max <= 0 {
			return fmt.Errorf("%s rate limit max must be positive", v.name)
		}
		if v.win <= 0 {
			return fmt.Errorf("%s rate limit window must be positive", v.name)
		}
	}
	return nil
}

// WorkerConfig is the subset of configuration the analytics worker needs.
// It deliberately omits auth and HTTP sections so the worker can start
// without a JWT secret.
type WorkerConfig struct {
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Log      LogConfig

	// Drain and sweep cadence.
	FlushInterval time.Duration `envconfig:"CLICK_FLUSH_INTERVAL" default:"5s"`
	SweepInterval time.Duration `envconfig:"EXPIRY_SWEEP_INTERVAL" default:"10m"`
}

func LoadWorker() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}
	if cfg.FlushInterval <= 0 || cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("flush and sweep intervals must be positive")
	}
	return cfg, nil
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	return cfg, nil
}

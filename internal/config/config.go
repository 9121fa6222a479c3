package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr     string `envconfig:"API_ADDR" default:"127.0.0.1:8080"` // ":8080" in Docker
	LogDir   string `envconfig:"LOG_DIR" default:"logs"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Walk tuning
	DNSTimeout     time.Duration `envconfig:"DNS_TIMEOUT" default:"1s"`
	DefaultTimeout time.Duration `envconfig:"WALK_DEFAULT_TIMEOUT" default:"10ms"`

	// API surface
	APIKeys        []string `envconfig:"API_KEYS"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	RateLimitRPM   int      `envconfig:"RATE_LIMIT_RPM" default:"120"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST" default:"30"`

	// Optional: failed walks are posted here
	SlackWebhook string `envconfig:"SLACK_WEBHOOK_URL"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside local dev.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DNSTimeout <= 0 {
		return fmt.Errorf("config: DNS_TIMEOUT must be positive, got %s", c.DNSTimeout)
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("config: WALK_DEFAULT_TIMEOUT must be positive, got %s", c.DefaultTimeout)
	}
	if c.RateLimitRPM < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("config: rate limits must not be negative")
	}
	return nil
}

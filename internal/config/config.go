// Package config loads runtime configuration from environment variables.
//
// Configuration is read once in main and passed by value into constructors.
// Nothing reads the environment after startup, and there is no mutable global
// config state anywhere in the application.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the server.
//
// JWT_SECRET is required: tokens signed with a predictable default secret are
// forgeable by anyone who reads the source, so the process refuses to start
// without an explicit secret rather than silently degrading.
type Config struct {
	Addr       string        `envconfig:"ADDR" default:":8080"`
	DBPath     string        `envconfig:"DB_PATH" default:"data/eventhub.db"`
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"12"`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"info"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	return &cfg, nil
}

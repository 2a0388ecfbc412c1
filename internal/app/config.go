package app

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/orderdraft/orderdraft/internal/gateway"
)

// Config holds runtime configuration for the client.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// GatewayURL is the persistence service base URL. Empty selects the
	// seeded in-memory gateway, which is what the demo binary runs against.
	GatewayURL     string        `envconfig:"GATEWAY_URL" default:""`
	GatewayToken   string        `envconfig:"GATEWAY_TOKEN" default:""`
	GatewayTimeout time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"30s"`

	ActorLevel int   `envconfig:"ACTOR_LEVEL" default:"1"`
	RecordID   int64 `envconfig:"RECORD_ID" default:"1"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level returns the configured actor privilege level.
func (c *Config) Level() gateway.ActorLevel {
	return gateway.ActorLevel(c.ActorLevel)
}

// IsProduction returns true when the client runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

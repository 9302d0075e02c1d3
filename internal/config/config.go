package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the process needs at startup. Missing required
// values abort startup loudly; the bot never runs half-configured.
type Config struct {
	BotToken string  `env:"BOT_TOKEN,required"`
	AdminIDs []int64 `env:"ADMIN_IDS,required" envSeparator:","`

	// Static payment rails shown during top-up.
	UzcardNumber string `env:"UZCARD_NUMBER,required"`
	UzcardOwner  string `env:"UZCARD_OWNER" envDefault:""`
	HumoNumber   string `env:"HUMO_NUMBER,required"`
	HumoOwner    string `env:"HUMO_OWNER" envDefault:""`

	UsersFile     string        `env:"USERS_FILE" envDefault:"data/users.json"`
	OrdersFile    string        `env:"ORDERS_FILE" envDefault:"data/orders.json"`
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"1m"`

	MinTopUp int64 `env:"MIN_TOPUP" envDefault:"1000"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS must name at least one admin")
	}
	return cfg, nil
}

// IsAdmin reports whether id belongs to the static admin set.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

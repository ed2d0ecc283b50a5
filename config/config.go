// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config is the full process configuration. MaxPlayersPerRoom is
// declared as an int so the capacity check is a numeric comparison by
// construction; a non-numeric value fails at startup, not mid-game.
type Config struct {
	Port              int    `env:"PORT,default=8000"`
	MaxPlayersPerRoom int    `env:"MAX_PLAYERS_PER_ROOM,default=8"`
	HandSize          int    `env:"HAND_SIZE,default=7"`
	DBPath            string `env:"DB_PATH,default=rooms.db"`
	CORSOrigins       string `env:"CORS_ORIGINS,default=*"`
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.MaxPlayersPerRoom < 1 {
		return cfg, fmt.Errorf("MAX_PLAYERS_PER_ROOM must be at least 1, got %d", cfg.MaxPlayersPerRoom)
	}
	if cfg.HandSize < 1 {
		return cfg, fmt.Errorf("HAND_SIZE must be at least 1, got %d", cfg.HandSize)
	}
	return cfg, nil
}

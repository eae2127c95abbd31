package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/peterkuimelis/netrun/internal/catalog"
	"github.com/peterkuimelis/netrun/internal/game"
)

// Config is the process-level configuration shared by every command.
// Command-line flags override these values.
type Config struct {
	Seed       int64  `env:"NETRUN_SEED"` // 0 picks a random seed per combat
	DBPath     string `env:"NETRUN_DB" envDefault:"netrun.db"`
	CatalogDir string `env:"NETRUN_CATALOG_DIR"` // empty uses the embedded catalog
	Port       string `env:"NETRUN_PORT" envDefault:"4000"`
	WebPort    string `env:"NETRUN_WEB_PORT" envDefault:"8080"`
	Build      string `env:"NETRUN_BUILD" envDefault:"netrunner"`
	LogLevel   string `env:"NETRUN_LOG_LEVEL" envDefault:"info"`
	Dev        bool   `env:"NETRUN_DEV"`
	MaxHand    int    `env:"NETRUN_MAX_HAND" envDefault:"10"`
	HandSize   int    `env:"NETRUN_HAND_SIZE" envDefault:"5"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no combat can run with.
func (c Config) Validate() error {
	if c.HandSize <= 0 {
		return fmt.Errorf("hand size must be positive, got %d", c.HandSize)
	}
	if c.MaxHand < c.HandSize {
		return fmt.Errorf("max hand %d is smaller than hand size %d", c.MaxHand, c.HandSize)
	}
	if c.Build == "" {
		return fmt.Errorf("build must not be empty")
	}
	return nil
}

// Rules converts the table settings to combat rules.
func (c Config) Rules() game.Rules {
	return game.Rules{
		HandSize:    c.HandSize,
		MaxHandSize: c.MaxHand,
	}
}

// Catalog loads the card catalog from CatalogDir, or the embedded one.
func (c Config) Catalog() (*catalog.Catalog, error) {
	if c.CatalogDir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(c.CatalogDir)
}

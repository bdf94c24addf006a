// Package config loads configuration from an optional YAML file and
// environment variables. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string   `yaml:"listen_addr"`
	MetricsAddr string   `yaml:"metrics_addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Node store ("postgres" or "memory")
	StoreBackend  string `yaml:"store_backend"`
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`

	// Search result cap; 0 returns every match.
	SearchLimit int `yaml:"search_limit"`

	// Seed an empty store on start ("", "standard" or "massive").
	SeedOnStart string `yaml:"seed_on_start"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		ListenAddr:   ":3000",
		MetricsAddr:  ":9090",
		CORSOrigins:  []string{"*"},
		LogLevel:     "info",
		LogFormat:    "json",
		StoreBackend: StorePostgres,
		SearchLimit:  0,
	}
}

// Load reads configuration from CONFIG_FILE (if set) and the environment.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = envOr("LISTEN_ADDR", cfg.ListenAddr)
	cfg.MetricsAddr = envOr("METRICS_ADDR", cfg.MetricsAddr)
	cfg.CORSOrigins = envList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
	cfg.StoreBackend = envOr("STORE_BACKEND", cfg.StoreBackend)
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsDir = envOr("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.SearchLimit = envInt("SEARCH_LIMIT", cfg.SearchLimit)
	cfg.SeedOnStart = envOr("SEED_ON_START", cfg.SeedOnStart)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.StoreBackend, StorePostgres, StoreMemory)
	}
	switch c.SeedOnStart {
	case "", "standard", "massive":
	default:
		return fmt.Errorf("unknown SEED_ON_START %q", c.SeedOnStart)
	}
	if c.SearchLimit < 0 {
		return fmt.Errorf("SEARCH_LIMIT must not be negative")
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

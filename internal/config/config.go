// Package config loads the service configuration from a single YAML file.
// The engines read no environment variables; everything configurable lives
// here.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pzawadzki/grafik/internal/model"
)

// Config validation errors.
var (
	ErrNoDoctors     = errors.New("config: team has no doctors")
	ErrDuplicateName = errors.New("config: duplicate doctor name")
	ErrBadRole       = errors.New("config: doctor role must be fixed or rotation")
	ErrNoStore       = errors.New("config: either store.path or store.dsn must be set")
)

// StoreConfig selects the preference backend: a CSV file path, or a
// Postgres DSN. When both are set the DSN wins.
type StoreConfig struct {
	Path string `yaml:"path"`
	DSN  string `yaml:"dsn"`
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EngineConfig carries generator defaults.
type EngineConfig struct {
	Trials int `yaml:"trials"`
	// BudgetSeconds caps the wall-clock time of one generation run.
	BudgetSeconds int `yaml:"budget_seconds"`
}

// Config is the full service configuration.
type Config struct {
	// Doctors in file order; that order is the canonical order.
	Doctors []model.Doctor `yaml:"doctors"`
	Store   StoreConfig    `yaml:"store"`
	Server  ServerConfig   `yaml:"server"`
	Engine  EngineConfig   `yaml:"engine"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Engine.Trials <= 0 {
		c.Engine.Trials = 500
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if len(c.Doctors) == 0 {
		return ErrNoDoctors
	}
	seen := make(map[string]bool, len(c.Doctors))
	for _, d := range c.Doctors {
		if seen[d.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
		}
		seen[d.Name] = true
		if d.Role != model.RoleFixed && d.Role != model.RoleRotation {
			return fmt.Errorf("%w: %q has %q", ErrBadRole, d.Name, d.Role)
		}
	}
	if c.Store.Path == "" && c.Store.DSN == "" {
		return ErrNoStore
	}
	return nil
}

// Team builds the model team from the configured doctors.
func (c *Config) Team() *model.Team {
	return &model.Team{Doctors: c.Doctors}
}

// Budget returns the configured generation budget (zero when unset).
func (c *Config) Budget() time.Duration {
	return time.Duration(c.Engine.BudgetSeconds) * time.Second
}

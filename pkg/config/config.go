// Package config loads dicebot settings from defaults, an optional YAML file
// and DICEBOT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DICEBOT_"

// Config holds server and command settings.
type Config struct {
	Host        string `env:"HOST" yaml:"host"`
	Port        int    `env:"PORT" yaml:"port"`
	GRPCPort    int    `env:"GRPC_PORT" yaml:"grpcPort"`
	LogLevel    string `env:"LOG_LEVEL" yaml:"logLevel"`
	LogFormat   string `env:"LOG_FORMAT" yaml:"logFormat"`
	HistorySize int    `env:"HISTORY_SIZE" yaml:"historySize"`
	MaxRepeat   int    `env:"MAX_REPEAT" yaml:"maxRepeat"`

	// Seed makes every roll reproducible when non-zero.
	Seed uint64 `env:"SEED" yaml:"seed"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8787,
		GRPCPort:    8788,
		LogLevel:    "info",
		LogFormat:   "text",
		HistorySize: 100,
		MaxRepeat:   10,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays DICEBOT_* environment variables onto target. Unset
// variables leave fields untouched.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("grpc port %d out of range", c.GRPCPort))
	}
	if c.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("history size must be positive, got %d", c.HistorySize))
	}
	if c.MaxRepeat < 1 {
		errs = append(errs, fmt.Errorf("max repeat must be positive, got %d", c.MaxRepeat))
	}
	return errors.Join(errs...)
}

// HTTPAddr returns the HTTP listen address.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCAddr returns the gRPC listen address.
func (c Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

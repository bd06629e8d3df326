package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env in the working directory (existing variables win)
//  3. YAML config file (explicit path, EXPRESS_CONFIG env, ./config.yaml)
//  4. EXPRESS_* environment variable overrides
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	// A missing .env is not an error.
	_ = godotenv.Load(".env")

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. EXPRESS_CONFIG environment variable
// 3. ./config.yaml in the current directory
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("EXPRESS_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps EXPRESS_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("EXPRESS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("EXPRESS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXPRESS_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("EXPRESS_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("EXPRESS_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EXPRESS_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if v := os.Getenv("EXPRESS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("EXPRESS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("EXPRESS_CORS_ORIGIN"); v != "" {
		cfg.CORS.AllowOrigin = v
	}
	if v := os.Getenv("EXPRESS_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EXPRESS_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RPS = rps
	}
	if v := os.Getenv("EXPRESS_JWT_SECRET"); v != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.JWTSecret = v
	}
	return nil
}

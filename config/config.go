// Package config provides configuration for an express server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. .env file (if present)
//  3. YAML config file (discovered or explicitly specified)
//  4. Environment variable overrides (EXPRESS_ prefix)
//  5. Validation
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all configuration for an express server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Auth      AuthConfig      `yaml:"auth"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`             // default: "" (all interfaces)
	Port            int           `yaml:"port"`             // default: 8080
	Transport       string        `yaml:"transport"`        // "fasthttp" or "nethttp", default: "fasthttp"
	Name            string        `yaml:"name"`             // Server header, default: "express"
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// CORSConfig holds settings for the CORS middleware.
type CORSConfig struct {
	Enabled     bool   `yaml:"enabled"`      // default: true
	AllowOrigin string `yaml:"allow_origin"` // default: "*"
}

// RateLimitConfig holds per-client rate limit settings.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"` // default: false
	RPS     float64 `yaml:"rps"`     // default: 5
	Burst   int     `yaml:"burst"`   // default: 10
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// AuthConfig holds JWT bearer authentication settings.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`    // default: false
	Prefix    string `yaml:"prefix"`     // routes under this prefix require a token, default: "/api"
	JWTSecret string `yaml:"jwt_secret"` // required when enabled
	Issuer    string `yaml:"issuer"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			Transport:       TransportFastHTTP,
			Name:            "express",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CORS: CORSConfig{
			Enabled:     true,
			AllowOrigin: "*",
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Auth: AuthConfig{
			Prefix: "/api",
		},
	}
}

// Supported transports.
const (
	TransportFastHTTP = "fasthttp"
	TransportNetHTTP  = "nethttp"
)

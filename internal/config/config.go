// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinJWTSecretLength is the minimum required length for the token signing
// secret. HMAC-SHA256 keys should be at least 32 bytes.
const MinJWTSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"YAMDB_DB_PATH" envDefault:"./data/yamdb.db"`
	JWTSecret  string `env:"YAMDB_JWT_SECRET,required"`
	ServerHost string `env:"YAMDB_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"YAMDB_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"YAMDB_ENV" envDefault:"development"`
	LogLevel   string `env:"YAMDB_LOG_LEVEL" envDefault:"info"`

	// Token lifetime in hours.
	TokenTTLHours int `env:"YAMDB_TOKEN_TTL_HOURS" envDefault:"24"`

	// Confirmation code delivery endpoint. When empty, codes are only
	// written to the log (development).
	NotifyURL    string `env:"YAMDB_NOTIFY_URL"`
	NotifySecret string `env:"YAMDB_NOTIFY_SECRET"`

	// Rate limiting for the public API, per client IP.
	RateLimitRPS   float64 `env:"YAMDB_RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int     `env:"YAMDB_RATE_LIMIT_BURST" envDefault:"200"`
	// Tighter limit for the auth endpoints.
	AuthRateLimitRPS   float64 `env:"YAMDB_AUTH_RATE_LIMIT_RPS" envDefault:"10"`
	AuthRateLimitBurst int     `env:"YAMDB_AUTH_RATE_LIMIT_BURST" envDefault:"20"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// NotifyEnabled returns true if out-of-band code delivery is configured.
func (c Config) NotifyEnabled() bool {
	return c.NotifyURL != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("YAMDB_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("YAMDB_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("YAMDB_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}

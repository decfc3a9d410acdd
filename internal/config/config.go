// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// PerPageOptions are the allowed listings-per-page values.
var PerPageOptions = []int{5, 10, 20, 50}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"BULLETIN_DB_PATH" envDefault:"./data/bulletin.db"`
	SessionSecret string `env:"BULLETIN_SESSION_SECRET,required"`
	ServerHost    string `env:"BULLETIN_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BULLETIN_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"BULLETIN_ENV" envDefault:"development"`
	LogLevel      string `env:"BULLETIN_LOG_LEVEL" envDefault:"info"`

	// Admin allow-list: comma-separated email addresses permitted to edit.
	AdminEmails []string `env:"BULLETIN_ADMIN_EMAILS" envSeparator:","`

	// Pagination defaults
	DefaultPerPage int `env:"BULLETIN_DEFAULT_PER_PAGE" envDefault:"5"`

	// Cache configuration
	RedisURL    string `env:"BULLETIN_REDIS_URL"`                       // Optional Redis URL for the record cache
	CachePrefix string `env:"BULLETIN_CACHE_PREFIX" envDefault:"pbb:"` // Redis key prefix
	CacheTTL    int    `env:"BULLETIN_CACHE_TTL" envDefault:"3600"`    // Record cache TTL in seconds

	// Image host configuration (unsigned-preset upload endpoint)
	ImageUploadURL    string `env:"BULLETIN_IMAGE_UPLOAD_URL"`
	ImageUploadPreset string `env:"BULLETIN_IMAGE_UPLOAD_PRESET"`

	// Event log retention in days for the scheduler prune job.
	EventRetentionDays int `env:"BULLETIN_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed bool `env:"BULLETIN_DO_SEED" envDefault:"true"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// ImageUploadEnabled returns true if the image host is configured.
func (c Config) ImageUploadEnabled() bool {
	return c.ImageUploadURL != "" && c.ImageUploadPreset != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("BULLETIN_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("BULLETIN_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Normalize the allow-list: trim whitespace, lowercase, drop empties.
	cfg.AdminEmails = normalizeEmails(cfg.AdminEmails)

	if !validPerPage(cfg.DefaultPerPage) {
		return nil, fmt.Errorf("BULLETIN_DEFAULT_PER_PAGE must be one of %v, got %d", PerPageOptions, cfg.DefaultPerPage)
	}

	return cfg, nil
}

// normalizeEmails lowercases and trims each entry, dropping blanks.
func normalizeEmails(in []string) []string {
	var out []string
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// validPerPage reports whether n is an allowed per-page value.
func validPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}

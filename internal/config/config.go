// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

// Package config loads service configuration from defaults, an optional YAML
// file, environment variables, and command-line flags, in that order of
// precedence (later sources win).
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envPrefix namespaces environment variables, e.g. HUDUMIA_DATABASE_URL.
const envPrefix = "HUDUMIA_"

// Config is the root service configuration.
type Config struct {
	Log           LogConfig           `koanf:"log"`
	HTTP          HTTPConfig          `koanf:"http"`
	Observability ObservabilityConfig `koanf:"observability"`
	Database      DatabaseConfig      `koanf:"database"`
	Auth          AuthConfig          `koanf:"auth"`
	SMTP          SMTPConfig          `koanf:"smtp"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	// Format is "text" or "json".
	Format string `koanf:"format"`
	// Level is "debug", "info", "warn", or "error".
	Level string `koanf:"level"`
}

// HTTPConfig controls the public API server.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
	// ResetBaseURL is the frontend origin embedded in password reset links.
	ResetBaseURL string `koanf:"reset_base_url"`
	// CORSOrigins lists allowed browser origins. Empty allows none.
	CORSOrigins []string `koanf:"cors_origins"`
}

// ObservabilityConfig controls the metrics and health endpoint server.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig holds credential and session settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required, no default.
	JWTSecret string `koanf:"jwt_secret"`
	// TOTPIssuer is the issuer label shown in authenticator apps.
	TOTPIssuer string `koanf:"totp_issuer"`
}

// SMTPConfig holds outbound mail relay settings.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.format":          "text",
		"log.level":           "info",
		"http.addr":           ":8080",
		"http.reset_base_url": "http://localhost:3000",
		"observability.addr":  ":9100",
		"auth.totp_issuer":    "HudumiaHealth",
		"smtp.port":           587,
	}
}

// Load builds the configuration. path may be empty, in which case no file is
// read. flags may be nil. Flags must use dotted names matching config keys
// (e.g. --http.addr).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, oops.Code("CONFIG_INVALID").With("path", path).Errorf("config file not found")
			}
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	// HUDUMIA_DATABASE_URL -> database.url. Only the first underscore maps to
	// a section separator so keys like reset_base_url survive.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load environment").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal config").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required settings are present and well-formed.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return oops.Code("CONFIG_INVALID").With("log.format", c.Log.Format).
			Errorf("log format must be text or json")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").With("log.level", c.Log.Level).
			Errorf("log level must be debug, info, warn, or error")
	}

	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http.addr is required")
	}
	if c.HTTP.ResetBaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http.reset_base_url is required")
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (set HUDUMIA_DATABASE_URL)")
	}
	if c.Auth.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("auth.jwt_secret is required (set HUDUMIA_AUTH_JWT_SECRET)")
	}
	if c.SMTP.Host == "" {
		return oops.Code("CONFIG_INVALID").Errorf("smtp.host is required")
	}
	if c.SMTP.From == "" {
		return oops.Code("CONFIG_INVALID").Errorf("smtp.from is required")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return oops.Code("CONFIG_INVALID").With("smtp.port", c.SMTP.Port).
			Errorf("smtp.port must be between 1 and 65535")
	}

	return nil
}

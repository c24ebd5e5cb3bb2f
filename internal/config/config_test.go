// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumia/hudumia/internal/config"
	"github.com/hudumia/hudumia/pkg/errutil"
)

// setRequiredEnv provides the settings that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HUDUMIA_DATABASE_URL", "postgres://localhost:5432/hudumia")
	t.Setenv("HUDUMIA_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("HUDUMIA_SMTP_HOST", "smtp.example.com")
	t.Setenv("HUDUMIA_SMTP_FROM", "noreply@hudumia.health")
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hudumia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":9100", cfg.Observability.Addr)
	assert.Equal(t, "HudumiaHealth", cfg.Auth.TOTPIssuer)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "postgres://localhost:5432/hudumia", cfg.Database.URL)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	path := writeConfigFile(t, `
log:
  format: json
  level: debug
http:
  addr: ":9090"
  cors_origins:
    - https://app.hudumia.health
smtp:
  port: 2525
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://app.hudumia.health"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 2525, cfg.SMTP.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HUDUMIA_LOG_FORMAT", "json")
	path := writeConfigFile(t, "log:\n  format: text\n")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HUDUMIA_HTTP_ADDR", ":7070")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http.addr", "", "listen address")
	require.NoError(t, flags.Parse([]string{"--http.addr", ":6060"}))

	cfg, err := config.Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTP.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestLoad_MalformedYAML(t *testing.T) {
	setRequiredEnv(t)
	path := writeConfigFile(t, "log: [unclosed\n")

	_, err := config.Load(path, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Log:           config.LogConfig{Format: "text", Level: "info"},
			HTTP:          config.HTTPConfig{Addr: ":8080", ResetBaseURL: "http://localhost:3000"},
			Observability: config.ObservabilityConfig{Addr: ":9100"},
			Database:      config.DatabaseConfig{URL: "postgres://localhost/hudumia"},
			Auth:          config.AuthConfig{JWTSecret: "secret", TOTPIssuer: "HudumiaHealth"},
			SMTP:          config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@hudumia.health"},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Log.Level = "verbose" }},
		{"missing http addr", func(c *config.Config) { c.HTTP.Addr = "" }},
		{"missing reset base url", func(c *config.Config) { c.HTTP.ResetBaseURL = "" }},
		{"missing database url", func(c *config.Config) { c.Database.URL = "" }},
		{"missing jwt secret", func(c *config.Config) { c.Auth.JWTSecret = "" }},
		{"missing smtp host", func(c *config.Config) { c.SMTP.Host = "" }},
		{"missing smtp from", func(c *config.Config) { c.SMTP.From = "" }},
		{"smtp port out of range", func(c *config.Config) { c.SMTP.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}

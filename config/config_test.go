// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Workers.MaxWorkers)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "json", cfg.Bookmarks.Backend)
	assert.Equal(t, "png", cfg.Render.Format)
	assert.Equal(t, 10*time.Second, cfg.Geocoder.Timeout)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
workers:
  max_workers: 2
server:
  transport: http
  http_port: 9090
render:
  format: svg
  width: 800
bookmarks:
  backend: sqlite
  path: /tmp/bookmarks.db
outputs:
  ttl: 2h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers.MaxWorkers)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "svg", cfg.Render.Format)
	assert.Equal(t, 800, cfg.Render.Width)
	assert.Equal(t, 600, cfg.Render.Height, "unset keys keep defaults")
	assert.Equal(t, "sqlite", cfg.Bookmarks.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Outputs.TTL)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Workers, cfg.Workers)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  transprot: http\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "workers:\n  max_workers: 2\n")
	t.Setenv("MAX_WORKERS", "7")
	t.Setenv("ACQUIRE_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SCAN_UPLOADS", "true")
	t.Setenv("SCAN_ON_FAIL", "allow")
	t.Setenv("GEOCODER_URL", "http://geo.local")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers.MaxWorkers)
	assert.Equal(t, 5*time.Second, cfg.Workers.AcquireTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Scanning.ClamAV)
	assert.True(t, cfg.Scanning.FailOpen)
	assert.Equal(t, "http://geo.local", cfg.Geocoder.BaseURL)
}

func TestEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("MAX_WORKERS", "many")
	t.Setenv("UPLOAD_TTL", "-1h")
	t.Setenv("SCAN_ON_FAIL", "maybe")

	cfg := LoadFromEnv()
	def := DefaultConfig()
	assert.Equal(t, def.Workers.MaxWorkers, cfg.Workers.MaxWorkers)
	assert.Equal(t, def.Storage.UploadTTL, cfg.Storage.UploadTTL)
	assert.False(t, cfg.Scanning.FailOpen)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"transport", func(c *Config) { c.Server.Transport = "grpc" }},
		{"backend", func(c *Config) { c.Bookmarks.Backend = "redis" }},
		{"format", func(c *Config) { c.Render.Format = "gif" }},
		{"workers", func(c *Config) { c.Workers.MaxWorkers = 0 }},
		{"port", func(c *Config) { c.Server.HTTPPort = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

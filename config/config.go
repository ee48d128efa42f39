// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package config provides configuration loading for the Cute Charts MCP Server.
//
// Values are layered: DefaultConfig, then an optional YAML file, then
// environment variables. Command-line flags are applied last by main.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sagacient/cute-charts-mcp-server/geocode"
	"github.com/sagacient/cute-charts-mcp-server/logging"
	"github.com/sagacient/cute-charts-mcp-server/scanner"
)

// Config holds all configuration options for the server.
type Config struct {
	Workers   WorkerConfig   `yaml:"workers"`
	Server    ServerConfig   `yaml:"server"`
	Storage   StorageConfig  `yaml:"storage"`
	Outputs   OutputConfig   `yaml:"outputs"`
	Render    RenderConfig   `yaml:"render"`
	Bookmarks BookmarkConfig `yaml:"bookmarks"`
	Geocoder  geocode.Config `yaml:"geocoder"`
	Scanning  scanner.Config `yaml:"scanning"`
	Logging   logging.Config `yaml:"logging"`

	// PresetsFile adds or overrides presets.
	PresetsFile string `yaml:"presets_file"`
}

// WorkerConfig bounds concurrent pipeline runs.
type WorkerConfig struct {
	MaxWorkers      int           `yaml:"max_workers"`
	AcquireTimeout  time.Duration `yaml:"acquire_timeout"`
	LoadConcurrency int           `yaml:"load_concurrency"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport"` // "stdio" or "http"
	HTTPPort  int    `yaml:"http_port"`
}

// StorageConfig controls HTTP uploads.
type StorageConfig struct {
	Dir           string        `yaml:"dir"`
	UploadTTL     time.Duration `yaml:"upload_ttl"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
}

// OutputConfig controls rendered chart retention.
type OutputConfig struct {
	Dir             string        `yaml:"dir"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// RenderConfig holds chart image defaults.
type RenderConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"`
	// FontPath points to a TrueType font with Hangul glyphs.
	FontPath string `yaml:"font_path"`
}

// BookmarkConfig selects the bookmark backend.
type BookmarkConfig struct {
	Backend string `yaml:"backend"` // "json" or "sqlite"
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers: WorkerConfig{
			MaxWorkers:      5,
			AcquireTimeout:  30 * time.Second,
			LoadConcurrency: 4,
		},
		Server: ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Storage: StorageConfig{
			Dir:           defaultDir("/storage", "~/.cache/cute-charts/uploads"),
			UploadTTL:     time.Hour,
			MaxUploadSize: 100 * 1024 * 1024,
		},
		Outputs: OutputConfig{
			Dir:             defaultDir("/outputs", "~/.cache/cute-charts/outputs"),
			TTL:             24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Render: RenderConfig{
			Width:  1024,
			Height: 600,
			Format: "png",
		},
		Bookmarks: BookmarkConfig{
			Backend: "json",
			Path:    "bookmarks.json",
		},
		Geocoder: geocode.DefaultConfig(),
		Scanning: scanner.Config{
			ClamAV:   false,
			FailOpen: false,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// defaultDir prefers a container mount when it exists.
func defaultDir(mount, local string) string {
	if _, err := os.Stat(mount); err == nil {
		return mount
	}
	return local
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.MergeYAML(data); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeYAML overlays YAML content on cfg. Unknown keys are rejected.
func (cfg *Config) MergeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// LoadFromEnv returns the defaults with environment overrides applied.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from environment variables. Malformed values
// are ignored.
func (cfg *Config) ApplyEnv() {
	envInt("MAX_WORKERS", &cfg.Workers.MaxWorkers)
	envDuration("ACQUIRE_TIMEOUT", &cfg.Workers.AcquireTimeout)
	envInt("LOAD_CONCURRENCY", &cfg.Workers.LoadConcurrency)

	envString("TRANSPORT", &cfg.Server.Transport)
	envInt("HTTP_PORT", &cfg.Server.HTTPPort)

	envString("STORAGE_DIR", &cfg.Storage.Dir)
	envDuration("UPLOAD_TTL", &cfg.Storage.UploadTTL)
	envInt64("MAX_UPLOAD_SIZE", &cfg.Storage.MaxUploadSize)

	envString("OUTPUT_DIR", &cfg.Outputs.Dir)
	envDuration("OUTPUT_TTL", &cfg.Outputs.TTL)

	envString("FONT_PATH", &cfg.Render.FontPath)

	envString("BOOKMARKS_BACKEND", &cfg.Bookmarks.Backend)
	envString("BOOKMARKS_PATH", &cfg.Bookmarks.Path)

	envString("GEOCODER_URL", &cfg.Geocoder.BaseURL)
	envString("GEOCODER_USER_AGENT", &cfg.Geocoder.UserAgent)
	envDuration("GEOCODER_TIMEOUT", &cfg.Geocoder.Timeout)

	envBool("SCAN_UPLOADS", &cfg.Scanning.ClamAV)
	if v := os.Getenv("SCAN_ON_FAIL"); v == "allow" || v == "reject" {
		cfg.Scanning.FailOpen = v == "allow"
	}

	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)

	envString("PRESETS_FILE", &cfg.PresetsFile)
}

// Validate rejects settings the server cannot start with.
func (cfg *Config) Validate() error {
	switch cfg.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport %q (expected stdio or http)", cfg.Server.Transport)
	}
	switch cfg.Bookmarks.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("invalid bookmark backend %q (expected json or sqlite)", cfg.Bookmarks.Backend)
	}
	switch cfg.Render.Format {
	case "png", "svg":
	default:
		return fmt.Errorf("invalid render format %q (expected png or svg)", cfg.Render.Format)
	}
	if cfg.Workers.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be positive, got %d", cfg.Workers.MaxWorkers)
	}
	if cfg.Server.HTTPPort < 1 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", cfg.Server.HTTPPort)
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

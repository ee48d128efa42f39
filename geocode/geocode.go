// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package geocode resolves free-text addresses to coordinates using a
// Nominatim-compatible search service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotFound covers every lookup failure: empty query, no match, timeout,
// service error and out-of-range coordinates.
var ErrNotFound = errors.New("address not found")

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p is inside the coordinate ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Geocoder resolves an address to a point.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Point, error)
}

// Config configures Client.
type Config struct {
	BaseURL       string        `yaml:"base_url"`
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	CacheSize     int           `yaml:"cache_size"`
}

// DefaultConfig follows the public Nominatim usage policy.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://nominatim.openstreetmap.org",
		UserAgent:     "cute-charts-mcp-server",
		Timeout:       10 * time.Second,
		RatePerSecond: 1,
		CacheSize:     256,
	}
}

// Client is a Geocoder backed by HTTP. Lookups are throttled, never retried,
// and successful results are cached.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, Point]
	logger  *zap.Logger
}

// NewClient creates a client. Zero config fields take their defaults.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid geocoder URL: %w", err)
	}
	cache, err := lru.New[string, Point](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder cache: %w", err)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cache:   cache,
		logger:  logger,
	}, nil
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode looks up query. Any failure is reported as ErrNotFound wrapped
// with the cause.
func (c *Client) Geocode(ctx context.Context, query string) (Point, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Point{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}
	if p, ok := c.cache.Get(query); ok {
		return p, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	p, err := c.search(ctx, query)
	if err != nil {
		c.logger.Warn("Geocoding failed", zap.String("query", query), zap.Error(err))
		return Point{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	c.cache.Add(query, p)
	c.logger.Debug("Geocoded address",
		zap.String("query", query),
		zap.Float64("lat", p.Lat),
		zap.Float64("lon", p.Lon))
	return p, nil
}

func (c *Client) search(ctx context.Context, query string) (Point, error) {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/search?" + url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Point{}, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Point{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("service returned %s", resp.Status)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, fmt.Errorf("invalid response: %w", err)
	}
	if len(results) == 0 {
		return Point{}, errors.New("no results")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude %q", results[0].Lon)
	}

	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Point{}, fmt.Errorf("coordinates out of range: %v", p)
	}
	return p, nil
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package bookmark

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/geocode"
)

var (
	// ErrNameRequired is returned when a bookmark has no name.
	ErrNameRequired = errors.New("bookmark name is required")

	// ErrInvalidCoordinates is returned for half-specified or out-of-range
	// coordinates.
	ErrInvalidCoordinates = errors.New("latitude must be in [-90, 90] and longitude in [-180, 180], both or neither")
)

// DefaultCenter is used for an empty map (Seoul City Hall).
var DefaultCenter = geocode.Point{Lat: 37.5665, Lon: 126.9780}

// AddRequest describes a new bookmark. When Lat and Lon are nil the place is
// geocoded from Address, or from Name when Address is empty.
type AddRequest struct {
	Name    string   `json:"name"`
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Book serialises read-modify-write cycles on a Store.
type Book struct {
	mu       sync.Mutex
	store    Store
	geocoder geocode.Geocoder
	logger   *zap.Logger
}

// NewBook creates a book. geocoder may be nil, in which case requests must
// carry coordinates.
func NewBook(store Store, geocoder geocode.Geocoder, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{store: store, geocoder: geocoder, logger: logger}
}

// List returns the saved bookmarks.
func (b *Book) List(ctx context.Context) ([]Bookmark, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Load(ctx)
}

// Add resolves coordinates, appends and persists. Nothing is written when
// validation or geocoding fails.
func (b *Book) Add(ctx context.Context, req AddRequest) (Bookmark, error) {
	bm, err := b.resolve(ctx, req)
	if err != nil {
		return Bookmark{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.store.Load(ctx)
	if err != nil {
		return Bookmark{}, err
	}
	list = append(list, bm)
	if err := b.store.Save(ctx, list); err != nil {
		return Bookmark{}, err
	}

	b.logger.Info("Bookmark added",
		zap.String("name", bm.Name),
		zap.Float64("lat", bm.Lat),
		zap.Float64("lon", bm.Lon),
		zap.Int("total", len(list)))
	return bm, nil
}

func (b *Book) resolve(ctx context.Context, req AddRequest) (Bookmark, error) {
	bm := Bookmark{
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
	}
	if bm.Name == "" {
		return Bookmark{}, ErrNameRequired
	}

	switch {
	case req.Lat != nil && req.Lon != nil:
		p := geocode.Point{Lat: *req.Lat, Lon: *req.Lon}
		if !p.Valid() {
			return Bookmark{}, ErrInvalidCoordinates
		}
		bm.Lat, bm.Lon = p.Lat, p.Lon
	case req.Lat != nil || req.Lon != nil:
		return Bookmark{}, ErrInvalidCoordinates
	default:
		if b.geocoder == nil {
			return Bookmark{}, fmt.Errorf("%w: geocoding is disabled", geocode.ErrNotFound)
		}
		query := bm.Address
		if query == "" {
			query = bm.Name
		}
		p, err := b.geocoder.Geocode(ctx, query)
		if err != nil {
			return Bookmark{}, err
		}
		bm.Lat, bm.Lon = p.Lat, p.Lon
	}
	return bm, nil
}

// Center returns the map centre: the most recent bookmark, or DefaultCenter.
func Center(list []Bookmark) geocode.Point {
	if len(list) == 0 {
		return DefaultCenter
	}
	last := list[len(list)-1]
	return geocode.Point{Lat: last.Lat, Lon: last.Lon}
}

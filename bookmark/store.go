// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package bookmark keeps a persistent list of named map locations.
package bookmark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

// Bookmark is one saved place.
type Bookmark struct {
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Store persists the whole bookmark list.
type Store interface {
	// Load returns the saved list, or an empty list when nothing was saved.
	Load(ctx context.Context) ([]Bookmark, error)
	// Save replaces the saved list.
	Save(ctx context.Context, list []Bookmark) error
}

// JSONStore keeps bookmarks in an indented UTF-8 JSON array.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store for path. The file is created on first Save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the file. A missing or blank file is an empty list.
func (s *JSONStore) Load(ctx context.Context) ([]Bookmark, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Bookmark{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Bookmark{}, nil
	}

	var list []Bookmark
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks: %w", err)
	}
	if list == nil {
		list = []Bookmark{}
	}
	return list, nil
}

// Save writes the list atomically, so a crash never leaves a truncated file.
func (s *JSONStore) Save(ctx context.Context, list []Bookmark) error {
	if list == nil {
		list = []Bookmark{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bookmarks: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create bookmark directory: %w", err)
	}
	if err := atomicwriter.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bookmarks: %w", err)
	}
	return nil
}

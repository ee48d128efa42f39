// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package output stores rendered charts and their data with TTL-based cleanup.
//
// Every render gets its own directory named after its id. The directory holds
// a metadata file plus the artifacts of that render (image, long-table CSV,
// feed JSON).
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moby/sys/atomicwriter"
	"go.uber.org/zap"
)

const (
	idPrefix     = "chart-"
	metadataFile = ".metadata.json"
)

var (
	// ErrNotConfigured is returned when no output directory is set.
	ErrNotConfigured = errors.New("output directory not configured")

	// ErrNotFound is returned for unknown ids or files.
	ErrNotFound = errors.New("output not found")
)

// Metadata describes one render.
type Metadata struct {
	ID        string    `json:"id"`
	Preset    string    `json:"preset,omitempty"`
	Source    string    `json:"source,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Info is Metadata plus the stored files.
type Info struct {
	Metadata
	Files []string `json:"files"`
	Path  string   `json:"path"`
}

// Store manages render directories under a base directory.
type Store struct {
	baseDir   string
	ttl       time.Duration
	logger    *zap.Logger
	mu        sync.RWMutex
	stopCh    chan struct{}
	cleanupWg sync.WaitGroup
}

// NewStore creates a store. An empty baseDir disables it: every call
// returns ErrNotConfigured.
func NewStore(baseDir string, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		baseDir: baseDir,
		ttl:     ttl,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// NewID returns a short unique render id.
func NewID() string {
	return idPrefix + uuid.New().String()[:8]
}

func validID(id string) bool {
	return strings.HasPrefix(id, idPrefix) && filepath.Base(id) == id
}

// Create allocates a render directory and writes its metadata. The id and
// timestamps of meta are filled in.
func (s *Store) Create(meta Metadata) (Metadata, error) {
	if s.baseDir == "" {
		return Metadata{}, ErrNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	meta.ID = NewID()
	meta.CreatedAt = now
	meta.ExpiresAt = now.Add(s.ttl)

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Metadata{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := atomicwriter.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
		return Metadata{}, fmt.Errorf("failed to write metadata: %w", err)
	}
	return meta, nil
}

// WriteFile stores one artifact of a render.
func (s *Store) WriteFile(id, name string, data []byte) error {
	if s.baseDir == "" {
		return ErrNotConfigured
	}
	name = filepath.Base(name)
	if !validID(id) || name == metadataFile || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, id, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := atomicwriter.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// List returns every stored render, newest first.
func (s *Store) List() ([]Info, error) {
	if s.baseDir == "" {
		return nil, ErrNotConfigured
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	out := []Info{}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), idPrefix) {
			continue
		}
		info, err := s.info(entry.Name())
		if err != nil {
			s.logger.Warn("Failed to read output info", zap.String("id", entry.Name()), zap.Error(err))
			continue
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get returns one render.
func (s *Store) Get(id string) (*Info, error) {
	if s.baseDir == "" {
		return nil, ErrNotConfigured
	}
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info(id)
}

// ReadFile returns the content of one artifact.
func (s *Store) ReadFile(id, name string) ([]byte, error) {
	if s.baseDir == "" {
		return nil, ErrNotConfigured
	}
	name = filepath.Base(name)
	if !validID(id) || name == metadataFile {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, id, name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.baseDir, id, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, id, name)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes one render.
func (s *Store) Delete(id string) error {
	if s.baseDir == "" {
		return ErrNotConfigured
	}
	if !validID(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete output: %w", err)
	}
	return nil
}

// DeleteAll removes every render and returns how many were deleted.
func (s *Store) DeleteAll() (int, error) {
	if s.baseDir == "" {
		return 0, ErrNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), idPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.baseDir, entry.Name())); err != nil {
			s.logger.Warn("Failed to delete output", zap.String("id", entry.Name()), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

// StartCleanupLoop removes expired renders every interval until Stop.
func (s *Store) StartCleanupLoop(interval time.Duration) {
	if s.baseDir == "" {
		s.logger.Info("Output directory not configured, cleanup loop disabled")
		return
	}

	s.cleanupWg.Add(1)
	go func() {
		defer s.cleanupWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.CleanupExpired()
		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info("Output cleanup loop started",
		zap.Duration("interval", interval),
		zap.Duration("ttl", s.ttl))
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (s *Store) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.cleanupWg.Wait()
}

// CleanupExpired removes renders past their expiry and returns the count.
// Directories without readable metadata expire by modification time.
func (s *Store) CleanupExpired() int {
	if s.baseDir == "" {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Cleanup: failed to read output directory", zap.Error(err))
		}
		return 0
	}

	now := time.Now()
	cleaned := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), idPrefix) {
			continue
		}
		dir := filepath.Join(s.baseDir, entry.Name())

		var expires time.Time
		if meta, err := readMetadata(dir); err == nil {
			expires = meta.ExpiresAt
		} else if fi, err := entry.Info(); err == nil {
			expires = fi.ModTime().Add(s.ttl)
		} else {
			continue
		}

		if now.After(expires) {
			if err := os.RemoveAll(dir); err == nil {
				cleaned++
			}
		}
	}

	if cleaned > 0 {
		s.logger.Info("Cleanup: removed expired outputs", zap.Int("count", cleaned))
	}
	return cleaned
}

func (s *Store) info(id string) (*Info, error) {
	dir := filepath.Join(s.baseDir, id)
	meta, err := readMetadata(dir)
	if err != nil {
		fi, statErr := os.Stat(dir)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return nil, statErr
		}
		meta = &Metadata{ID: id, CreatedAt: fi.ModTime(), ExpiresAt: fi.ModTime().Add(s.ttl)}
	}

	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}
	return &Info{Metadata: *meta, Files: files, Path: dir}, nil
}

func readMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == metadataFile {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

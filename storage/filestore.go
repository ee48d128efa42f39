// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package storage keeps uploaded tables on disk with automatic TTL cleanup.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/scanner"
)

// URIScheme prefixes upload references accepted by the tools.
const URIScheme = "upload://"

var (
	// ErrNotFound is returned for unknown or expired uploads.
	ErrNotFound = errors.New("uploaded file not found or expired")

	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("file exceeds maximum upload size")
)

// FileInfo holds metadata about an uploaded file.
type FileInfo struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Path       string          `json:"-"`
	Size       int64           `json:"size"`
	SizeHuman  string          `json:"size_human"`
	UploadedAt time.Time       `json:"uploaded_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	FileRef    string          `json:"file_ref"`
	Report     *scanner.Report `json:"inspection,omitempty"`
}

// FileStore manages uploaded files with automatic TTL-based cleanup.
type FileStore struct {
	baseDir   string
	ttl       time.Duration
	maxSize   int64
	inspector *scanner.Inspector
	logger    *zap.Logger
	files     map[string]*FileInfo
	mu        sync.RWMutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// NewFileStore creates the store and starts its cleanup goroutine. The
// inspector may be nil to accept any file.
func NewFileStore(baseDir string, ttl time.Duration, maxSize int64, inspector *scanner.Inspector, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseDir, err := ExpandHome(baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", baseDir, err)
	}

	fs := &FileStore{
		baseDir:   baseDir,
		ttl:       ttl,
		maxSize:   maxSize,
		inspector: inspector,
		logger:    logger,
		files:     make(map[string]*FileInfo),
		stopCh:    make(chan struct{}),
	}

	fs.loadExistingFiles()

	fs.wg.Add(1)
	go fs.cleanupLoop()

	logger.Info("FileStore initialized",
		zap.String("dir", baseDir),
		zap.Duration("ttl", ttl),
		zap.String("max_size", humanize.Bytes(uint64(maxSize))),
		zap.Bool("scanning", inspector != nil && inspector.ScanningEnabled()))
	return fs, nil
}

// loadExistingFiles picks up files left by a previous run (named
// id_originalname) and gives them a fresh TTL.
func (fs *FileStore) loadExistingFiles() {
	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		fs.logger.Warn("Could not read storage directory", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) < 2 {
			continue
		}

		fs.files[parts[0]] = &FileInfo{
			ID:         parts[0],
			Name:       parts[1],
			Path:       filepath.Join(fs.baseDir, entry.Name()),
			Size:       info.Size(),
			SizeHuman:  humanize.Bytes(uint64(info.Size())),
			UploadedAt: info.ModTime(),
			ExpiresAt:  time.Now().Add(fs.ttl),
			FileRef:    URIScheme + parts[0],
		}
		fs.logger.Debug("Loaded existing upload", zap.String("name", entry.Name()))
	}
}

func (fs *FileStore) cleanupLoop() {
	defer fs.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-fs.stopCh:
			return
		case <-ticker.C:
			fs.Cleanup()
		}
	}
}

// Cleanup removes expired files and returns how many were removed.
func (fs *FileStore) Cleanup() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, info := range fs.files {
		if !now.After(info.ExpiresAt) {
			continue
		}
		if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
			fs.logger.Warn("Failed to remove expired upload", zap.String("path", info.Path), zap.Error(err))
			continue
		}
		delete(fs.files, id)
		removed++
		fs.logger.Info("Cleaned up expired upload", zap.String("name", info.Name), zap.Time("uploaded_at", info.UploadedAt))
	}
	return removed
}

// Close stops the cleanup goroutine.
func (fs *FileStore) Close() error {
	close(fs.stopCh)
	fs.wg.Wait()
	return nil
}

// Upload saves r under a new id, inspects it and returns its metadata.
// Rejected files are removed before returning.
func (fs *FileStore) Upload(ctx context.Context, filename string, r io.Reader) (*FileInfo, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate file ID: %w", err)
	}

	safeName := sanitizeFilename(filename)
	if safeName == "" {
		safeName = "file"
	}
	filePath := filepath.Join(fs.baseDir, id+"_"+safeName)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(f, io.LimitReader(r, fs.maxSize+1))
	f.Close()
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if size > fs.maxSize {
		os.Remove(filePath)
		return nil, fmt.Errorf("%w of %s", ErrTooLarge, humanize.Bytes(uint64(fs.maxSize)))
	}

	var report *scanner.Report
	if fs.inspector != nil {
		report, err = fs.inspector.Inspect(ctx, safeName, filePath)
		if err != nil {
			os.Remove(filePath)
			return nil, err
		}
	}

	now := time.Now()
	info := &FileInfo{
		ID:         id,
		Name:       filename,
		Path:       filePath,
		Size:       size,
		SizeHuman:  humanize.Bytes(uint64(size)),
		UploadedAt: now,
		ExpiresAt:  now.Add(fs.ttl),
		FileRef:    URIScheme + id,
		Report:     report,
	}

	fs.mu.Lock()
	fs.files[id] = info
	fs.mu.Unlock()

	fs.logger.Info("Uploaded file",
		zap.String("name", filename),
		zap.String("id", id),
		zap.String("size", info.SizeHuman),
		zap.Time("expires_at", info.ExpiresAt))
	return info, nil
}

// Get returns the FileInfo of a live upload.
func (fs *FileStore) Get(id string) (*FileInfo, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	info, ok := fs.files[id]
	if !ok || time.Now().After(info.ExpiresAt) {
		return nil, false
	}
	return info, true
}

// List returns all live uploads, oldest first.
func (fs *FileStore) List() []*FileInfo {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	now := time.Now()
	result := make([]*FileInfo, 0, len(fs.files))
	for _, info := range fs.files {
		if now.Before(info.ExpiresAt) {
			result = append(result, info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UploadedAt.Before(result[j].UploadedAt) })
	return result
}

// Delete removes an upload.
func (fs *FileStore) Delete(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	info, ok := fs.files[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	delete(fs.files, id)
	fs.logger.Info("Deleted upload", zap.String("name", info.Name), zap.String("id", id))
	return nil
}

// Resolve maps an upload:// reference to its path. Other values are
// returned unchanged. The second result is the original upload name, or
// the base name of a plain path.
func (fs *FileStore) Resolve(ref string) (string, string, error) {
	if !strings.HasPrefix(ref, URIScheme) {
		return ref, filepath.Base(ref), nil
	}
	id := strings.TrimPrefix(ref, URIScheme)
	info, ok := fs.Get(id)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return info.Path, info.Name, nil
}

// BaseDir returns the storage directory.
func (fs *FileStore) BaseDir() string {
	return fs.baseDir
}

// TTL returns the upload lifetime.
func (fs *FileStore) TTL() time.Duration {
	return fs.ttl
}

// MaxSize returns the upload size limit in bytes.
func (fs *FileStore) MaxSize() int64 {
	return fs.maxSize
}

func generateID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// sanitizeFilename keeps the base name without separators, NUL bytes or
// leading dots, at most 200 bytes long.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.TrimLeft(name, ".")

	if len(name) > 200 {
		ext := filepath.Ext(name)
		name = name[:200-len(ext)] + ext
	}
	return name
}

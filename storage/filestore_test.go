// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/scanner"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore(t *testing.T, ttl time.Duration, maxSize int64) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), ttl, maxSize, scanner.NewInspector(scanner.Config{}, nil), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func TestUploadAndResolve(t *testing.T) {
	fs := newStore(t, time.Hour, 1024)
	ctx := context.Background()

	info, err := fs.Upload(ctx, "../작물.csv", strings.NewReader("시도별,1998\n서울,1\n"))
	require.NoError(t, err)
	assert.Equal(t, "upload://"+info.ID, info.FileRef)
	assert.Equal(t, "../작물.csv", info.Name)
	assert.NotNil(t, info.Report)
	assert.Equal(t, filepath.Join(fs.BaseDir(), info.ID+"_작물.csv"), info.Path)

	path, name, err := fs.Resolve(info.FileRef)
	require.NoError(t, err)
	assert.Equal(t, info.Path, path)
	assert.Equal(t, "../작물.csv", name)

	path, name, err = fs.Resolve("/data/local.csv")
	require.NoError(t, err)
	assert.Equal(t, "/data/local.csv", path)
	assert.Equal(t, "local.csv", name)

	_, _, err = fs.Resolve("upload://nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, fs.List(), 1)
	require.NoError(t, fs.Delete(info.ID))
	assert.Empty(t, fs.List())
	assert.ErrorIs(t, fs.Delete(info.ID), ErrNotFound)
	assert.NoFileExists(t, info.Path)
}

func TestUploadRejected(t *testing.T) {
	fs := newStore(t, time.Hour, 8)
	ctx := context.Background()

	_, err := fs.Upload(ctx, "big.csv", strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = fs.Upload(ctx, "x.exe", strings.NewReader("MZ"))
	assert.ErrorIs(t, err, scanner.ErrUnsupportedType)

	entries, err := os.ReadDir(fs.BaseDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads are removed")
}

func TestCleanupAndRestart(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, -time.Second, 1024, nil, nil)
	require.NoError(t, err)

	info, err := fs.Upload(context.Background(), "a.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)

	_, ok := fs.Get(info.ID)
	assert.False(t, ok, "expired uploads are hidden")
	assert.Equal(t, 1, fs.Cleanup())
	assert.NoFileExists(t, info.Path)
	require.NoError(t, fs.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc_b.csv"), []byte("b\n"), 0o644))
	again, err := NewFileStore(dir, time.Hour, 1024, nil, nil)
	require.NoError(t, err)
	defer again.Close()

	got, ok := again.Get("abc")
	require.True(t, ok)
	assert.Equal(t, "b.csv", got.Name)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "hidden.csv", sanitizeFilename(".hidden.csv"))
	assert.Len(t, sanitizeFilename(strings.Repeat("a", 300)+".csv"), 200)
}

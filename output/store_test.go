// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(t.TempDir(), time.Hour, zap.NewNop())

	meta, err := s.Create(Metadata{Preset: "crops", Kind: "bar", Title: "생산량"})
	require.NoError(t, err)
	assert.Regexp(t, `^chart-[0-9a-f]{8}$`, meta.ID)
	assert.WithinDuration(t, meta.CreatedAt.Add(time.Hour), meta.ExpiresAt, time.Second)

	require.NoError(t, s.WriteFile(meta.ID, "chart.png", []byte("png")))
	require.NoError(t, s.WriteFile(meta.ID, "data.csv", []byte("entity,year\n")))

	info, err := s.Get(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "crops", info.Preset)
	assert.ElementsMatch(t, []string{"chart.png", "data.csv"}, info.Files)

	data, err := s.ReadFile(meta.ID, "chart.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.Delete(meta.ID))
	_, err = s.Get(meta.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(meta.ID), ErrNotFound)
}

func TestStoreRejectsTraversal(t *testing.T) {
	s := NewStore(t.TempDir(), time.Hour, nil)
	meta, err := s.Create(Metadata{})
	require.NoError(t, err)

	_, err = s.ReadFile(meta.ID, metadataFile)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadFile("../etc", "passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.WriteFile("chart-missing", "a.png", nil), ErrNotFound)
}

func TestStoreNotConfigured(t *testing.T) {
	s := NewStore("", time.Hour, nil)
	_, err := s.Create(Metadata{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = s.List()
	assert.ErrorIs(t, err, ErrNotConfigured)
	s.StartCleanupLoop(time.Millisecond)
	s.Stop()
}

func TestCleanupExpired(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, -time.Second, nil)

	_, err := s.Create(Metadata{})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "unrelated"), 0o755))

	assert.Equal(t, 1, s.CleanupExpired())

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.DirExists(t, filepath.Join(dir, "unrelated"))
}

func TestDeleteAllAndCleanupLoop(t *testing.T) {
	s := NewStore(t.TempDir(), time.Hour, nil)
	for i := 0; i < 3; i++ {
		_, err := s.Create(Metadata{})
		require.NoError(t, err)
	}

	s.StartCleanupLoop(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop()

	n, err := s.DeleteAll()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "nothing had expired yet")
}

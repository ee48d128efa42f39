// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagacient/cute-charts-mcp-server/columns"
	"github.com/sagacient/cute-charts-mcp-server/feed"
)

func TestBuiltinPresetsAreValid(t *testing.T) {
	for _, p := range Builtin() {
		t.Run(p.Name, func(t *testing.T) {
			assert.NoError(t, p.Validate())
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	names := make([]string, 0)
	for _, p := range r.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"crops", "energy", "production", "rice"}, names)

	p, err := r.Get("crops")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Table.HeaderRows)

	p.Name = "changed"
	again, err := r.Get("crops")
	require.NoError(t, err)
	assert.Equal(t, "crops", again.Name, "Get returns a copy")

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `
presets:
  - name: population
    layout: long
    table:
      encoding: cp949
    roles:
      - name: entity
        candidates: [행정구역]
        required: true
      - name: year
        candidates: [기준연도]
        required: true
      - name: value
        candidates: [인구]
        match: substring
        required: true
    filters:
      - column: 행정구역
        op: not_equals
        value: 전국
    numeric:
      sentinel_missing: true
    chart:
      kind: line
      title: 인구 추이
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewRegistry()
	n, err := r.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := r.Get("population")
	require.NoError(t, err)
	assert.Equal(t, Long, p.Layout)
	assert.Equal(t, "cp949", p.Table.Encoding)
	assert.Equal(t, columns.Substring, p.Roles[2].Match)
	assert.Equal(t, []RowFilter{{Column: "행정구역", Op: NotEquals, Value: "전국"}}, p.Filters)
	assert.True(t, p.Numeric.SentinelMissing)
	assert.Equal(t, feed.Line, p.Chart.Kind)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Preset
	}{
		{name: "no name", p: Preset{}},
		{name: "bad layout", p: Preset{Name: "x", Layout: "tall"}},
		{name: "no entity role", p: Preset{Name: "x"}},
		{name: "long without year", p: Preset{Name: "x", Layout: Long, Roles: []columns.Role{{Name: RoleEntity}, {Name: RoleValue}}}},
		{name: "bad filter", p: Preset{Name: "x", Roles: []columns.Role{{Name: RoleEntity}}, Filters: []RowFilter{{Op: "like"}}}},
		{name: "bad chart", p: Preset{Name: "x", Roles: []columns.Role{{Name: RoleEntity}}, Chart: feed.Chart{Kind: "radar"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.p.Validate())
		})
	}

	_, err := NewRegistry().LoadYAML([]byte("presets:\n  - name: broken\n    layout: tall\n"))
	assert.Error(t, err)
}

func TestRowFilter(t *testing.T) {
	assert.True(t, RowFilter{Op: Contains, Value: "총생산량"}.Keep("신·재생에너지 총생산량"))
	assert.True(t, RowFilter{Op: Equals, Value: "계"}.Keep(" 계 "))
	assert.False(t, RowFilter{Op: NotEquals, Value: "계"}.Keep("계"))
}

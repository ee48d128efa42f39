// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/bookmark"
	"github.com/sagacient/cute-charts-mcp-server/output"
	"github.com/sagacient/cute-charts-mcp-server/preset"
	"github.com/sagacient/cute-charts-mcp-server/render"
	"github.com/sagacient/cute-charts-mcp-server/workerpool"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func testdata(name string) string {
	return filepath.Join("..", "pipeline", "testdata", name)
}

func newTools(t *testing.T) *ChartTools {
	t.Helper()
	return NewChartTools(Deps{
		Pool:    workerpool.NewPool(2, time.Second),
		Presets: preset.NewRegistry(),
		Outputs: output.NewStore(t.TempDir(), time.Hour, nil),
		Book:    bookmark.NewBook(bookmark.NewJSONStore(filepath.Join(t.TempDir(), "bookmarks.json")), nil, nil),
		Render:  render.Options{Format: render.PNG, Width: 320, Height: 200},
		Logger:  zap.NewNop(),
	})
}

func call(t *testing.T, h handler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "first content is %T", res.Content[0])
	return tc.Text
}

func TestInspectTable(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.InspectTableHandler, map[string]any{
		"file":         testdata("energy.csv"),
		"preview_rows": float64(2),
	})
	require.False(t, res.IsError, text(t, res))

	var got inspection
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "utf-8", got.Encoding)
	assert.Equal(t, []string{"에너지원별(1)", "에너지원별(2)", "에너지원별(3)", "2019", "2020", "2021"}, got.Columns)
	assert.Equal(t, 3, got.RowCount)
	assert.Len(t, got.Preview, 2)
}

func TestReshapeTableCSV(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.ReshapeTableHandler, map[string]any{
		"file":   testdata("rice.csv"),
		"preset": "rice",
	})
	require.False(t, res.IsError, text(t, res))

	lines := strings.Split(strings.TrimSpace(text(t, res)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "entity,year,metric,value", lines[0])
	assert.Equal(t, "서울특별시,1998,미곡 생산량 (톤),1520", lines[1])
}

func TestReshapeTableCustom(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.ReshapeTableHandler, map[string]any{
		"file":          testdata("production.csv"),
		"layout":        "long",
		"entity_column": "시도",
		"year_column":   "연도",
		"value_column":  "생산량",
		"format":        "json",
	})
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"entity": "강원"`)

	res = call(t, tt.ReshapeTableHandler, map[string]any{"file": testdata("production.csv")})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "entity_column")
}

func TestResolveColumns(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.ResolveColumnsHandler, map[string]any{
		"file":  testdata("production.csv"),
		"roles": map[string]any{"entity": []any{"지역", "시도"}, "year": []any{"년도"}},
	})
	require.False(t, res.IsError, text(t, res))

	var got []resolution
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	require.Len(t, got, 1)
	require.Len(t, got[0].Bindings, 1)
	assert.Equal(t, "시도", got[0].Bindings[0].Column)
	require.Len(t, got[0].Missing, 1)
	assert.Equal(t, "year", got[0].Missing[0].Role)
}

func TestChartFeed(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.ChartFeedHandler, map[string]any{
		"file":     testdata("energy.csv"),
		"preset":   "energy",
		"entities": []any{"태양광"},
	})
	require.False(t, res.IsError, text(t, res))

	var got feedSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, []string{"태양광"}, got.Entities)
	assert.Equal(t, []int{2019, 2020, 2021}, got.Years)
	assert.Len(t, got.Points, 3)

	res = call(t, tt.ChartFeedHandler, map[string]any{
		"file":      testdata("energy.csv"),
		"preset":    "energy",
		"year_from": float64(2030),
	})
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "no data matches")
}

func TestChartFeedDashMissingOverridesPreset(t *testing.T) {
	tt := newTools(t)
	args := func(dashMissing bool) map[string]any {
		return map[string]any{
			"file":         testdata("crops.csv"),
			"preset":       "crops",
			"dash_missing": dashMissing,
			"entities":     []any{"서울특별시"},
			"metrics":      []any{"미곡:생산량 (톤)"},
			"year_from":    float64(1999),
			"year_to":      float64(1999),
		}
	}
	points := func(res *mcp.CallToolResult) []map[string]any {
		require.False(t, res.IsError, text(t, res))
		var got struct {
			Points []map[string]any `json:"points"`
		}
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
		require.Len(t, got.Points, 1)
		return got.Points
	}

	missing := points(call(t, tt.ChartFeedHandler, args(true)))
	assert.Equal(t, "1999", missing[0]["x"])
	assert.Nil(t, missing[0]["y"])

	zero := points(call(t, tt.ChartFeedHandler, args(false)))
	assert.Equal(t, float64(0), zero[0]["y"])
}

func TestRenderChartEmptySelection(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.RenderChartHandler, map[string]any{
		"file":     testdata("energy.csv"),
		"preset":   "energy",
		"entities": []any{"수력"},
	})
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Contains(t, text(t, res), "no data matches")

	list, err := tt.outputs.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRenderChartStoresOutput(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.RenderChartHandler, map[string]any{
		"files":  []any{testdata("rice.csv")},
		"preset": "rice",
		"title":  "미곡 생산량",
	})
	require.False(t, res.IsError, text(t, res))
	require.Len(t, res.Content, 2)

	img, ok := res.Content[1].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	data, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])

	list, err := tt.outputs.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rice", list[0].Preset)
	assert.Equal(t, "rice.csv", list[0].Source)
	assert.ElementsMatch(t, []string{"chart.png", "data.csv", "feed.json"}, list[0].Files)
	assert.Contains(t, text(t, res), list[0].ID)

	got := call(t, tt.GetOutputHandler, map[string]any{"output_id": list[0].ID, "filename": "data.csv"})
	require.False(t, got.IsError)
	assert.True(t, strings.HasPrefix(text(t, got), "entity,year,metric,value"))

	got = call(t, tt.GetOutputHandler, map[string]any{"output_id": list[0].ID, "filename": "chart.png"})
	require.Len(t, got.Content, 2)

	del := call(t, tt.DeleteOutputsHandler, map[string]any{})
	assert.Contains(t, text(t, del), "deleted 1 output(s)")
}

func TestRenderChartSVG(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.RenderChartHandler, map[string]any{
		"file":   testdata("energy.csv"),
		"preset": "energy",
		"format": "svg",
	})
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), "<svg")
}

func TestUploadRefNeedsHTTPMode(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.ReshapeTableHandler, map[string]any{"file": "upload://abc", "preset": "rice"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "HTTP mode")
}

func TestAgeDistribution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "population.csv")
	content := "행정구역,2025년06월_남_총인구수,2025년06월_남_0세,2025년06월_남_1세,2025년06월_남_100세 이상\n" +
		"서울특별시  (1100000000),\"4,500,000\",\"20,000\",\"21,000\",900\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tt := newTools(t)
	res := call(t, tt.AgeDistributionHandler, map[string]any{
		"file":            path,
		"region_contains": "서울",
		"prefix":          "2025년06월_남_",
		"group":           "남",
		"format":          "csv",
	})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, "group,age,count\n남,0,20000\n남,1,21000\n남,100,900\n", text(t, res))

	res = call(t, tt.AgeDistributionHandler, map[string]any{
		"file":            path,
		"region_contains": "부산",
		"prefix":          "2025년06월_남_",
	})
	assert.True(t, res.IsError)
}

func TestListPresets(t *testing.T) {
	tt := newTools(t)
	res := call(t, tt.ListPresetsHandler, map[string]any{})
	for _, name := range []string{"crops", "energy", "production", "rice"} {
		assert.Contains(t, text(t, res), name)
	}

	res = call(t, tt.ListPresetsHandler, map[string]any{"name": "nope"})
	assert.True(t, res.IsError)
}

func TestBookmarks(t *testing.T) {
	tt := newTools(t)

	res := call(t, tt.AddBookmarkHandler, map[string]any{"name": "시청", "lat": 37.5663, "lon": 126.9779})
	require.False(t, res.IsError, text(t, res))

	res = call(t, tt.AddBookmarkHandler, map[string]any{"name": "반쪽", "lat": 37.0})
	assert.True(t, res.IsError)

	res = call(t, tt.AddBookmarkHandler, map[string]any{"name": "주소만", "address": "서울"})
	assert.True(t, res.IsError, "geocoding is disabled")

	res = call(t, tt.ListBookmarksHandler, map[string]any{"format": "geojson"})
	var fc bookmark.FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, [2]float64{126.9779, 37.5663}, fc.Features[0].Geometry.Coordinates)

	res = call(t, tt.GeocodeAddressHandler, map[string]any{"address": "서울"})
	assert.True(t, res.IsError)
}

func TestDisabledFeatures(t *testing.T) {
	tt := NewChartTools(Deps{})

	for _, h := range []handler{tt.ListOutputsHandler, tt.DeleteOutputsHandler, tt.ListBookmarksHandler} {
		res := call(t, h, map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "not configured")
	}

	res := call(t, tt.StatusHandler, map[string]any{})
	assert.Contains(t, text(t, res), "Max Workers:      1")
	assert.Contains(t, text(t, res), "Presets:          4")
	assert.Contains(t, text(t, res), "Uploads:          disabled")
}

func TestPoolExhausted(t *testing.T) {
	pool := workerpool.NewPool(1, 10*time.Millisecond)
	require.True(t, pool.TryAcquire())
	defer pool.Release()

	tt := NewChartTools(Deps{Pool: pool})
	res := call(t, tt.ChartFeedHandler, map[string]any{"file": testdata("energy.csv"), "preset": "energy"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "busy")
}

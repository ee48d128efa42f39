// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package tools provides MCP tool definitions and handlers for table
// reshaping, chart feeds and place bookmarks.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/bookmark"
	"github.com/sagacient/cute-charts-mcp-server/feed"
	"github.com/sagacient/cute-charts-mcp-server/geocode"
	"github.com/sagacient/cute-charts-mcp-server/output"
	"github.com/sagacient/cute-charts-mcp-server/preset"
	"github.com/sagacient/cute-charts-mcp-server/render"
	"github.com/sagacient/cute-charts-mcp-server/storage"
	"github.com/sagacient/cute-charts-mcp-server/workerpool"
)

// Deps are the services the handlers use. Book, Geocoder and Outputs may be
// nil; the matching tools then report that the feature is not configured.
type Deps struct {
	Pool            *workerpool.Pool
	Presets         *preset.Registry
	Outputs         *output.Store
	Book            *bookmark.Book
	Geocoder        geocode.Geocoder
	Render          render.Options
	LoadConcurrency int
	Logger          *zap.Logger
}

// ChartTools holds the tools and their dependencies.
type ChartTools struct {
	pool            *workerpool.Pool
	presets         *preset.Registry
	outputs         *output.Store
	book            *bookmark.Book
	geocoder        geocode.Geocoder
	render          render.Options
	loadConcurrency int
	logger          *zap.Logger
	fileStore       *storage.FileStore // HTTP mode only
}

// NewChartTools creates the tool handlers.
func NewChartTools(d Deps) *ChartTools {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Presets == nil {
		d.Presets = preset.NewRegistry()
	}
	if d.Pool == nil {
		d.Pool = workerpool.NewPool(1, 0)
	}
	return &ChartTools{
		pool:            d.Pool,
		presets:         d.Presets,
		outputs:         d.Outputs,
		book:            d.Book,
		geocoder:        d.Geocoder,
		render:          d.Render,
		loadConcurrency: d.LoadConcurrency,
		logger:          d.Logger,
	}
}

// SetFileStore enables upload:// references. It should be called when
// running in HTTP mode.
func (t *ChartTools) SetFileStore(fs *storage.FileStore) {
	t.fileStore = fs
}

// resolveFilePath maps upload:// references to stored files.
func (t *ChartTools) resolveFilePath(path string) (string, error) {
	if !strings.HasPrefix(path, storage.URIScheme) {
		return path, nil
	}
	if t.fileStore == nil {
		return "", errors.New("upload:// references are only supported in HTTP mode")
	}
	resolved, _, err := t.fileStore.Resolve(path)
	return resolved, err
}

func (t *ChartTools) resolveFilePaths(paths []string) ([]string, error) {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		r, err := t.resolveFilePath(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %q: %w", p, err)
		}
		resolved[i] = r
	}
	return resolved, nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError turns a handler failure into a tool result. Only unexpected
// failures are logged. An empty selection is not an error: the caller gets
// a plain message and no chart.
func (t *ChartTools) toolError(tool string, err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, feed.ErrEmptyResult):
		return mcp.NewToolResultText(err.Error()), nil
	case errors.Is(err, workerpool.ErrPoolExhausted):
		t.logger.Warn("Worker pool exhausted", zap.String("tool", tool))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		t.logger.Debug("Tool failed", zap.String("tool", tool), zap.Error(err))
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func toStringSlice(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case []string:
		return val, nil
	case []interface{}:
		result := make([]string, len(val))
		for i, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item at index %d is not a string", i)
			}
			result[i] = str
		}
		return result, nil
	case string:
		if val == "" {
			return nil, nil
		}
		return []string{val}, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}

// stringsArg reads an optional string array argument. A single string is
// accepted as a one-element list.
func stringsArg(request mcp.CallToolRequest, key string) ([]string, error) {
	list, err := toStringSlice(request.GetArguments()[key])
	if err != nil {
		return nil, fmt.Errorf("invalid parameter '%s': %w", key, err)
	}
	return list, nil
}

// floatArg reads an optional number argument; nil means absent.
func floatArg(request mcp.CallToolRequest, key string) (*float64, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid parameter '%s': %w", key, err)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("invalid parameter '%s': expected number, got %T", key, v)
	}
	return &f, nil
}

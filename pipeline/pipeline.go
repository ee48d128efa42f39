// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package pipeline chains loading, column resolution, reshaping and chart
// feeding for one preset.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sagacient/cute-charts-mcp-server/columns"
	"github.com/sagacient/cute-charts-mcp-server/feed"
	"github.com/sagacient/cute-charts-mcp-server/preset"
	"github.com/sagacient/cute-charts-mcp-server/reshape"
	"github.com/sagacient/cute-charts-mcp-server/table"
)

// Result is a reshaped table.
type Result struct {
	Preset       string                `json:"preset"`
	Resolution   columns.Resolution    `json:"resolution"`
	Observations []reshape.Observation `json:"observations"`
}

// Filter applies the preset's row filters. A filter on a column the table
// does not have is an error.
func Filter(t *table.Table, filters []preset.RowFilter) (*table.Table, error) {
	for _, f := range filters {
		col := t.Index(f.Column)
		if col < 0 {
			return nil, fmt.Errorf("filter column %q not found", f.Column)
		}
		f := f
		t = t.Filter(func(row []string) bool {
			if col >= len(row) {
				return f.Keep("")
			}
			return f.Keep(row[col])
		})
	}
	return t, nil
}

// Reshape filters rows, resolves the preset's roles and produces
// observations. An unresolved required role returns
// *columns.UnresolvedError.
func Reshape(t *table.Table, p *preset.Preset) (*Result, error) {
	t, err := Filter(t, p.Filters)
	if err != nil {
		return nil, err
	}

	res, err := columns.Resolve(t.Header, p.Roles)
	if err != nil {
		return nil, err
	}
	entity, _ := res.Column(preset.RoleEntity)

	var obs []reshape.Observation
	if p.Layout == preset.Long {
		year, _ := res.Column(preset.RoleYear)
		value, _ := res.Column(preset.RoleValue)
		metric, _ := res.Column(preset.RoleMetric)
		obs, err = reshape.FromLong(t, reshape.LongOptions{
			Entity:        entity,
			Year:          year,
			Value:         value,
			Metric:        metric,
			DefaultMetric: p.DefaultMetric,
			Numeric:       p.Numeric,
		})
	} else {
		obs, err = reshape.WideToLong(t, p.WideOptions(entity))
	}
	if err != nil {
		return nil, err
	}

	return &Result{Preset: p.Name, Resolution: res, Observations: obs}, nil
}

// Run reshapes t and builds a chart feed. A zero chart uses the preset's
// chart; otherwise non-empty fields of chart override it.
func Run(t *table.Table, p *preset.Preset, q feed.Query, chart feed.Chart) (*feed.Feed, error) {
	res, err := Reshape(t, p)
	if err != nil {
		return nil, err
	}
	return feed.Build(res.Observations, q, MergeChart(p.Chart, chart))
}

// MergeChart overlays the non-empty fields of override on base.
func MergeChart(base, override feed.Chart) feed.Chart {
	if override.Kind != "" {
		base.Kind = override.Kind
	}
	if override.X != "" {
		base.X = override.X
	}
	if override.Y != "" {
		base.Y = override.Y
	}
	if override.Color != "" {
		base.Color = override.Color
	}
	if override.Title != "" {
		base.Title = override.Title
	}
	if override.YLabel != "" {
		base.YLabel = override.YLabel
	}
	return base
}

// LoadAll loads several files concurrently, at most limit at a time. The
// result keeps the order of paths; the first failure cancels the rest.
func LoadAll(ctx context.Context, paths []string, opts table.Options, limit int) ([]*table.Table, error) {
	out := make([]*table.Table, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := table.LoadFile(path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package preset describes, in YAML, how one kind of statistical export is
// loaded, resolved, reshaped and charted.
package preset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sagacient/cute-charts-mcp-server/columns"
	"github.com/sagacient/cute-charts-mcp-server/feed"
	"github.com/sagacient/cute-charts-mcp-server/reshape"
	"github.com/sagacient/cute-charts-mcp-server/table"
)

// ErrUnknownPreset is returned by Registry.Get.
var ErrUnknownPreset = errors.New("unknown preset")

// Layout is the shape of the source table.
type Layout string

const (
	// Wide tables have one column per year (and optionally per metric).
	Wide Layout = "wide"
	// Long tables already have one row per observation.
	Long Layout = "long"
)

// Role names used by the built-in presets and by ad-hoc requests.
const (
	RoleEntity = "entity"
	RoleYear   = "year"
	RoleValue  = "value"
	RoleMetric = "metric"
)

// FilterOp is a row filter comparison.
type FilterOp string

const (
	Contains  FilterOp = "contains"
	Equals    FilterOp = "equals"
	NotEquals FilterOp = "not_equals"
)

// RowFilter keeps rows whose Column satisfies Op against Value. Filters are
// applied before reshaping.
type RowFilter struct {
	Column string   `yaml:"column" json:"column"`
	Op     FilterOp `yaml:"op" json:"op"`
	Value  string   `yaml:"value" json:"value"`
}

// Keep reports whether cell passes the filter.
func (f RowFilter) Keep(cell string) bool {
	cell = strings.TrimSpace(cell)
	switch f.Op {
	case Equals:
		return cell == f.Value
	case NotEquals:
		return cell != f.Value
	default:
		return strings.Contains(cell, f.Value)
	}
}

// Preset is a named pipeline configuration.
type Preset struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Table  table.Options `yaml:"table,omitempty" json:"table,omitempty"`
	Layout Layout        `yaml:"layout" json:"layout"`

	// Roles must include RoleEntity; long layouts also need RoleYear and
	// RoleValue, and may bind RoleMetric.
	Roles []columns.Role `yaml:"roles" json:"roles"`

	Filters []RowFilter `yaml:"filters,omitempty" json:"filters,omitempty"`

	// Wide layout settings.
	LabelColumns  []string `yaml:"label_columns,omitempty" json:"label_columns,omitempty"`
	Delimiter     string   `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	DefaultMetric string   `yaml:"default_metric,omitempty" json:"default_metric,omitempty"`
	YearPrefix    string   `yaml:"year_prefix,omitempty" json:"year_prefix,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	Numeric reshape.NumericOptions `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	Chart   feed.Chart             `yaml:"chart,omitempty" json:"chart,omitempty"`
}

// Validate checks that the preset can drive a pipeline.
func (p *Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("preset name is required")
	}

	need := []string{RoleEntity}
	switch p.Layout {
	case Wide, "":
	case Long:
		need = append(need, RoleYear, RoleValue)
	default:
		return fmt.Errorf("preset %s: unknown layout %q", p.Name, p.Layout)
	}

	for _, name := range need {
		if !p.hasRole(name) {
			return fmt.Errorf("preset %s: role %q is not defined", p.Name, name)
		}
	}
	for _, f := range p.Filters {
		switch f.Op {
		case Contains, Equals, NotEquals:
		default:
			return fmt.Errorf("preset %s: unknown filter op %q", p.Name, f.Op)
		}
	}
	if p.Chart.Kind != "" {
		if err := p.Chart.Validate(); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return nil
}

func (p *Preset) hasRole(name string) bool {
	for _, r := range p.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// WideOptions builds reshape options once the entity column is known.
func (p *Preset) WideOptions(entityColumn string) reshape.Options {
	return reshape.Options{
		IDColumn:      entityColumn,
		LabelColumns:  p.LabelColumns,
		Delimiter:     p.Delimiter,
		DefaultMetric: p.DefaultMetric,
		YearPrefix:    p.YearPrefix,
		Exclude:       p.Exclude,
		Numeric:       p.Numeric,
	}
}

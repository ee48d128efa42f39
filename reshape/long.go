// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package reshape

import (
	"fmt"
	"sort"

	"github.com/sagacient/cute-charts-mcp-server/table"
)

// LongOptions names the columns of a table that is already long.
type LongOptions struct {
	Entity string `yaml:"entity" json:"entity"`
	Year   string `yaml:"year" json:"year"`
	Value  string `yaml:"value" json:"value"`

	// Metric is optional; without it every row gets DefaultMetric, or the
	// value column name when that is empty too.
	Metric        string `yaml:"metric,omitempty" json:"metric,omitempty"`
	DefaultMetric string `yaml:"default_metric,omitempty" json:"default_metric,omitempty"`

	Numeric NumericOptions `yaml:"numeric,omitempty" json:"numeric,omitempty"`
}

// FromLong reads observations from a long table, ordered by year. Rows with
// no entity or no recognisable year are skipped.
func FromLong(t *table.Table, opts LongOptions) ([]Observation, error) {
	entity, err := column(t, opts.Entity)
	if err != nil {
		return nil, err
	}
	year, err := column(t, opts.Year)
	if err != nil {
		return nil, err
	}
	value, err := column(t, opts.Value)
	if err != nil {
		return nil, err
	}
	metric := -1
	if opts.Metric != "" {
		if metric, err = column(t, opts.Metric); err != nil {
			return nil, err
		}
	}

	def := opts.DefaultMetric
	if def == "" {
		def = opts.Value
	}

	var out []Observation
	for r := range t.Rows {
		e := t.Cell(r, entity)
		if e == "" {
			continue
		}
		y, ok := ExtractYear(t.Cell(r, year))
		if !ok {
			continue
		}
		m := def
		if metric >= 0 {
			if v := t.Cell(r, metric); v != "" {
				m = v
			}
		}
		out = append(out, Observation{
			Entity: e,
			Year:   y,
			Metric: m,
			Value:  ParseNumeric(t.Cell(r, value), opts.Numeric),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func column(t *table.Table, name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("column %q not found", name)
	}
	return i, nil
}

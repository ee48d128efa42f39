// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package reshape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sagacient/cute-charts-mcp-server/table"
)

var (
	// ErrNoValueColumns is returned when no column name carries a year.
	ErrNoValueColumns = errors.New("no year columns found")
)

// DefaultMetric names observations whose column has no metric part.
const DefaultMetric = "value"

// Options configures WideToLong.
type Options struct {
	// IDColumn holds the entity label of each row.
	IDColumn string `yaml:"id_column" json:"id_column"`

	// LabelColumns are copied into Observation.Labels and never reshaped.
	LabelColumns []string `yaml:"label_columns,omitempty" json:"label_columns,omitempty"`

	// Delimiter separates metric and year in value column names.
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`

	// DefaultMetric replaces an empty metric part.
	DefaultMetric string `yaml:"default_metric,omitempty" json:"default_metric,omitempty"`

	// YearPrefix restricts value columns to those whose year part starts
	// with it, e.g. "20".
	YearPrefix string `yaml:"year_prefix,omitempty" json:"year_prefix,omitempty"`

	// Exclude drops rows whose entity equals one of these, e.g. "계".
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	Numeric NumericOptions `yaml:"numeric,omitempty" json:"numeric,omitempty"`
}

type valueColumn struct {
	index  int
	metric string
	year   int
}

// WideToLong emits one observation per (row, value column) in row-major
// order. Rows with an empty entity are skipped.
func WideToLong(t *table.Table, opts Options) ([]Observation, error) {
	id := t.Index(opts.IDColumn)
	if id < 0 {
		return nil, fmt.Errorf("identifier column %q not found", opts.IDColumn)
	}

	labels := make(map[int]string, len(opts.LabelColumns))
	for _, name := range opts.LabelColumns {
		i := t.Index(name)
		if i < 0 {
			return nil, fmt.Errorf("label column %q not found", name)
		}
		labels[i] = name
	}

	cols := valueColumns(t.Header, id, labels, opts)
	if len(cols) == 0 {
		return nil, ErrNoValueColumns
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, e := range opts.Exclude {
		excluded[strings.TrimSpace(e)] = struct{}{}
	}

	var out []Observation
	for r := range t.Rows {
		entity := t.Cell(r, id)
		if entity == "" {
			continue
		}
		if _, skip := excluded[entity]; skip {
			continue
		}

		var rowLabels map[string]string
		if len(labels) > 0 {
			rowLabels = make(map[string]string, len(labels))
			for i, name := range labels {
				rowLabels[name] = t.Cell(r, i)
			}
		}

		for _, c := range cols {
			out = append(out, Observation{
				Entity: entity,
				Year:   c.year,
				Metric: c.metric,
				Value:  ParseNumeric(t.Cell(r, c.index), opts.Numeric),
				Labels: rowLabels,
			})
		}
	}
	return out, nil
}

func valueColumns(header []string, id int, labels map[int]string, opts Options) []valueColumn {
	def := opts.DefaultMetric
	if def == "" {
		def = DefaultMetric
	}

	var cols []valueColumn
	for i, name := range header {
		if i == id {
			continue
		}
		if _, ok := labels[i]; ok {
			continue
		}
		metric, year, ok := ParseColumn(name, opts.Delimiter)
		if !ok {
			continue
		}
		if opts.YearPrefix != "" && !strings.HasPrefix(strconv.Itoa(year), opts.YearPrefix) {
			continue
		}
		if metric == "" {
			metric = def
		}
		cols = append(cols, valueColumn{index: i, metric: metric, year: year})
	}
	return cols
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package feed selects observations and pairs them with a chart description.
// It never aggregates: grouping and summing belong to the renderer.
package feed

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/sagacient/cute-charts-mcp-server/reshape"
)

// ErrEmptyResult means the query matched nothing. It is informational: the
// caller should suppress the chart and tell the user to adjust the filters.
var ErrEmptyResult = errors.New("no data matches the selected filters")

// Kind is a chart type.
type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
	Pie  Kind = "pie"
)

// Field names accepted by Chart.X, Chart.Y and Chart.Color.
const (
	FieldEntity = "entity"
	FieldYear   = "year"
	FieldMetric = "metric"
	FieldValue  = "value"
)

// ParseKind validates a chart kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Bar, Line, Pie:
		return k, nil
	case "":
		return Bar, nil
	default:
		return "", fmt.Errorf("unknown chart kind %q (expected bar, line or pie)", s)
	}
}

// Query narrows observations. Empty selectors match everything and a zero
// year bound is open.
type Query struct {
	Entities []string `yaml:"entities,omitempty" json:"entities,omitempty"`
	Metrics  []string `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	YearFrom int      `yaml:"year_from,omitempty" json:"year_from,omitempty"`
	YearTo   int      `yaml:"year_to,omitempty" json:"year_to,omitempty"`
}

// Validate rejects an inverted year range.
func (q Query) Validate() error {
	if q.YearFrom != 0 && q.YearTo != 0 && q.YearFrom > q.YearTo {
		return fmt.Errorf("invalid year range %d-%d", q.YearFrom, q.YearTo)
	}
	return nil
}

// Match reports whether o satisfies the query.
func (q Query) Match(o reshape.Observation) bool {
	if len(q.Entities) > 0 && !contains(q.Entities, o.Entity) {
		return false
	}
	if len(q.Metrics) > 0 && !contains(q.Metrics, o.Metric) {
		return false
	}
	if q.YearFrom != 0 && o.Year < q.YearFrom {
		return false
	}
	if q.YearTo != 0 && o.Year > q.YearTo {
		return false
	}
	return true
}

// Select returns the matching observations in input order.
func (q Query) Select(obs []reshape.Observation) []reshape.Observation {
	var out []reshape.Observation
	for _, o := range obs {
		if q.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// Chart describes how a feed should be drawn.
type Chart struct {
	Kind   Kind   `yaml:"kind" json:"kind"`
	X      string `yaml:"x,omitempty" json:"x,omitempty"`
	Y      string `yaml:"y,omitempty" json:"y,omitempty"`
	Color  string `yaml:"color,omitempty" json:"color,omitempty"`
	Title  string `yaml:"title,omitempty" json:"title,omitempty"`
	YLabel string `yaml:"y_label,omitempty" json:"y_label,omitempty"`
}

// WithDefaults fills the usual year/value/entity layout.
func (c Chart) WithDefaults() Chart {
	if c.Kind == "" {
		c.Kind = Bar
	}
	if c.X == "" {
		c.X = FieldYear
	}
	if c.Y == "" {
		c.Y = FieldValue
	}
	if c.Color == "" && c.X != FieldEntity {
		c.Color = FieldEntity
	}
	return c
}

// Validate checks the kind and field names.
func (c Chart) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	for _, f := range []string{c.X, c.Color} {
		switch f {
		case "", FieldEntity, FieldYear, FieldMetric:
		default:
			return fmt.Errorf("unknown field %q", f)
		}
	}
	if c.Y != "" && c.Y != FieldValue {
		return fmt.Errorf("y must be %q, got %q", FieldValue, c.Y)
	}
	return nil
}

// Feed is what the renderer consumes.
type Feed struct {
	Chart        Chart                 `json:"chart"`
	Observations []reshape.Observation `json:"observations"`
}

// Build selects obs with q and attaches the chart. It returns ErrEmptyResult
// when nothing is left.
func Build(obs []reshape.Observation, q Query, c Chart) (*Feed, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sel := q.Select(obs)
	if len(sel) == 0 {
		return nil, ErrEmptyResult
	}
	return &Feed{Chart: c, Observations: sel}, nil
}

// Point is one observation projected onto the chart fields.
type Point struct {
	X     string        `json:"x"`
	Color string        `json:"color,omitempty"`
	Y     reshape.Value `json:"y"`
}

// Points projects the observations in order.
func (f *Feed) Points() []Point {
	out := make([]Point, len(f.Observations))
	for i, o := range f.Observations {
		out[i] = Point{X: Field(o, f.Chart.X), Color: Field(o, f.Chart.Color), Y: o.Value}
	}
	return out
}

// Field returns the string form of a named observation field.
func Field(o reshape.Observation, name string) string {
	switch name {
	case FieldEntity:
		return o.Entity
	case FieldYear:
		return strconv.Itoa(o.Year)
	case FieldMetric:
		return o.Metric
	default:
		return ""
	}
}

// Entities lists distinct entities in first-seen order.
func Entities(obs []reshape.Observation) []string {
	return distinct(obs, func(o reshape.Observation) string { return o.Entity })
}

// Metrics lists distinct metrics in first-seen order.
func Metrics(obs []reshape.Observation) []string {
	return distinct(obs, func(o reshape.Observation) string { return o.Metric })
}

// Years lists distinct years in ascending order.
func Years(obs []reshape.Observation) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, o := range obs {
		if _, ok := seen[o.Year]; !ok {
			seen[o.Year] = struct{}{}
			out = append(out, o.Year)
		}
	}
	sort.Ints(out)
	return out
}

func distinct(obs []reshape.Observation, key func(reshape.Observation) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range obs {
		k := key(o)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

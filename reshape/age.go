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

// ErrNoMatchingRow is returned when no row matches the region filter.
var ErrNoMatchingRow = errors.New("no row matches the region filter")

// OpenEndedAge is used for the "100세 이상" bucket.
const OpenEndedAge = 100

// totalsMarkers identify aggregate columns in resident population exports.
var totalsMarkers = []string{"총인구수", "연령구간인구수"}

// AgeOptions selects one row and one column family of a population export.
type AgeOptions struct {
	// RegionColumn holds the administrative area, e.g. "행정구역".
	RegionColumn string `yaml:"region_column" json:"region_column"`

	// RegionContains picks the first row whose region contains it.
	RegionContains string `yaml:"region_contains" json:"region_contains"`

	// Prefix selects the age columns, e.g. "2025년06월_남_".
	Prefix string `yaml:"prefix" json:"prefix"`

	// Group labels the result, e.g. "남".
	Group string `yaml:"group,omitempty" json:"group,omitempty"`
}

// AgeCount is one bar of an age histogram.
type AgeCount struct {
	Group string  `json:"group" csv:"group"`
	Age   int     `json:"age" csv:"age"`
	Count float64 `json:"count" csv:"count"`
}

// AgeDistribution extracts the per-age counts of one region. Columns named
// "<prefix><N>세" map to age N and "<prefix>100세 이상" to OpenEndedAge.
// Missing counts are reported as zero.
func AgeDistribution(t *table.Table, opts AgeOptions) ([]AgeCount, error) {
	region, err := column(t, opts.RegionColumn)
	if err != nil {
		return nil, err
	}

	row := -1
	for r := range t.Rows {
		if strings.Contains(t.Cell(r, region), opts.RegionContains) {
			row = r
			break
		}
	}
	if row < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatchingRow, opts.RegionContains)
	}

	var out []AgeCount
	for i, name := range t.Header {
		age, ok := parseAge(name, opts.Prefix)
		if !ok {
			continue
		}
		v := ParseNumeric(t.Cell(row, i), NumericOptions{})
		out = append(out, AgeCount{Group: opts.Group, Age: age, Count: v.Float})
	}
	return out, nil
}

func parseAge(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	for _, m := range totalsMarkers {
		if strings.Contains(name, m) {
			return 0, false
		}
	}

	part := strings.TrimPrefix(name, prefix)
	if strings.Contains(part, "이상") {
		return OpenEndedAge, true
	}
	part = strings.TrimSpace(strings.ReplaceAll(part, "세", ""))
	age, err := strconv.Atoi(part)
	if err != nil {
		return 0, false
	}
	return age, true
}

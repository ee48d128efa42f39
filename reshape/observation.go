// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package reshape turns wide statistical tables into long observations.
package reshape

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is a number that may be explicitly missing.
type Value struct {
	Float float64
	Valid bool
}

// Number returns a present value.
func Number(f float64) Value {
	return Value{Float: f, Valid: true}
}

// MarshalJSON encodes a missing value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Number(f)
	return nil
}

// MarshalText is used by the CSV exporter; missing values become empty cells.
func (v Value) MarshalText() ([]byte, error) {
	if !v.Valid {
		return []byte{}, nil
	}
	return []byte(strconv.FormatFloat(v.Float, 'f', -1, 64)), nil
}

// UnmarshalText is the inverse of MarshalText.
func (v *Value) UnmarshalText(text []byte) error {
	if len(bytes.TrimSpace(text)) == 0 {
		*v = Value{}
		return nil
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(text)), 64)
	if err != nil {
		return err
	}
	*v = Number(f)
	return nil
}

// Observation is one (entity, year, metric, value) cell of a long table.
// Labels carries any extra identifier columns of the source row.
type Observation struct {
	Entity string            `json:"entity" csv:"entity"`
	Year   int               `json:"year" csv:"year"`
	Metric string            `json:"metric" csv:"metric"`
	Value  Value             `json:"value" csv:"value"`
	Labels map[string]string `json:"labels,omitempty" csv:"-"`
}

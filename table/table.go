// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package table loads CSV and XLSX exports into an in-memory grid of strings.
//
// Statistical exports rarely agree on their layout: some carry a metadata row
// above the header, some split the header over two rows (a year row above a
// metric row), and older files are saved in CP949 rather than UTF-8. Options
// describes those differences so that every later stage sees one header row
// of trimmed names and plain UTF-8 cells.
package table

import (
	"errors"
	"strings"
)

var (
	// ErrEncoding is returned when the input is neither valid UTF-8 nor
	// decodable with the fallback encoding.
	ErrEncoding = errors.New("unable to decode file: unsupported text encoding")

	// ErrNoHeader is returned when the file has fewer rows than the header
	// layout requires.
	ErrNoHeader = errors.New("file has no header row")
)

// DefaultHeaderJoin separates the lower and upper names of a two-row header.
const DefaultHeaderJoin = "|"

// Options controls how raw records are turned into a Table.
type Options struct {
	// Encoding forces a source encoding. Empty means UTF-8 with a single
	// fallback attempt (see Fallback).
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`

	// Fallback is tried once when the input is not valid UTF-8.
	// Defaults to cp949.
	Fallback string `yaml:"fallback,omitempty" json:"fallback,omitempty"`

	// SkipRows drops metadata rows above the header.
	SkipRows int `yaml:"skip_rows,omitempty" json:"skip_rows,omitempty"`

	// HeaderRows is 1 (default) or 2. With two rows the first is treated as
	// the upper header (usually years) and the second as the lower header
	// (usually metric names); they are merged as lower + HeaderJoin + upper.
	HeaderRows int `yaml:"header_rows,omitempty" json:"header_rows,omitempty"`

	// HeaderJoin overrides DefaultHeaderJoin.
	HeaderJoin string `yaml:"header_join,omitempty" json:"header_join,omitempty"`

	// SkipDataRows drops rows directly below the header, such as unit rows.
	SkipDataRows int `yaml:"skip_data_rows,omitempty" json:"skip_data_rows,omitempty"`

	// Comma is the field delimiter for CSV input. Defaults to ",".
	Comma string `yaml:"comma,omitempty" json:"comma,omitempty"`
}

func (o Options) headerRows() int {
	if o.HeaderRows < 1 {
		return 1
	}
	return o.HeaderRows
}

func (o Options) headerJoin() string {
	if o.HeaderJoin == "" {
		return DefaultHeaderJoin
	}
	return o.HeaderJoin
}

// Table is a header plus data rows. Rows may be ragged; use Cell for safe
// access.
type Table struct {
	Header   []string   `json:"header"`
	Rows     [][]string `json:"rows"`
	Encoding string     `json:"encoding"`
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at row, col or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Preview returns at most n data rows.
func (t *Table) Preview(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return t.Rows[:n]
}

// Filter returns a shallow copy holding only the rows keep accepts.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := &Table{Header: t.Header, Encoding: t.Encoding}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// fromRecords applies the header layout in opts to raw records.
func fromRecords(records [][]string, opts Options, encoding string) (*Table, error) {
	if opts.SkipRows > 0 {
		if opts.SkipRows >= len(records) {
			return nil, ErrNoHeader
		}
		records = records[opts.SkipRows:]
	}

	n := opts.headerRows()
	if len(records) < n {
		return nil, ErrNoHeader
	}

	var header []string
	if n == 1 {
		header = cleanHeader(records[0])
	} else {
		header = mergeHeader(cleanHeader(records[0]), cleanHeader(records[1]), opts.headerJoin())
	}

	rows := records[n:]
	if opts.SkipDataRows > 0 {
		if opts.SkipDataRows >= len(rows) {
			rows = nil
		} else {
			rows = rows[opts.SkipDataRows:]
		}
	}

	return &Table{Header: header, Rows: rows, Encoding: encoding}, nil
}

func cleanHeader(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

// mergeHeader combines an upper and a lower header row. Equal or one-sided
// names collapse to a single name so identifier columns keep their label.
func mergeHeader(upper, lower []string, join string) []string {
	width := len(upper)
	if len(lower) > width {
		width = len(lower)
	}

	merged := make([]string, width)
	for i := 0; i < width; i++ {
		var u, l string
		if i < len(upper) {
			u = upper[i]
		}
		if i < len(lower) {
			l = lower[i]
		}
		switch {
		case u == l, u == "":
			merged[i] = l
		case l == "":
			merged[i] = u
		default:
			merged[i] = l + join + u
		}
	}
	return merged
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package reshape

import (
	"math"
	"strconv"
	"strings"
)

// DefaultSentinel is the token statistical exports use for "no output".
const DefaultSentinel = "-"

// NumericOptions controls cell cleanup.
type NumericOptions struct {
	// Sentinel is the whole-cell no-data token. Empty means DefaultSentinel.
	Sentinel string `yaml:"sentinel,omitempty" json:"sentinel,omitempty"`

	// SentinelMissing treats the sentinel as missing instead of zero.
	SentinelMissing bool `yaml:"sentinel_missing,omitempty" json:"sentinel_missing,omitempty"`
}

func (o NumericOptions) sentinel() string {
	if o.Sentinel == "" {
		return DefaultSentinel
	}
	return o.Sentinel
}

// NormalizeNumeric strips whitespace and thousands separators and rewrites
// the sentinel. Only a cell that is exactly the sentinel is rewritten, so
// negative numbers survive. Normalizing twice yields the same string.
func NormalizeNumeric(s string, opts NumericOptions) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == opts.sentinel() {
		if opts.SentinelMissing {
			return ""
		}
		return "0"
	}
	return s
}

// ParseNumeric normalizes s and coerces it to a float. Anything that does not
// parse as a finite number is missing.
func ParseNumeric(s string, opts NumericOptions) Value {
	n := NormalizeNumeric(s, opts)
	if n == "" {
		return Value{}
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Number(f)
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package reshape

import (
	"regexp"
	"strconv"
	"strings"
)

// yearToken finds a standalone 4-digit run, e.g. "1998" in "1998.1" or
// "2025" in "2025년06월".
var yearToken = regexp.MustCompile(`(?:^|[^0-9])([0-9]{4})(?:[^0-9]|$)`)

// ExtractYear returns the first standalone 4-digit token of s.
func ExtractYear(s string) (int, bool) {
	m := yearToken.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// ParseColumn splits a wide column name into metric and year. The name is
// cut at the last delimiter: the left part is the metric and the year is
// taken from the right part. Without a delimiter the metric is empty and the
// year comes from the whole name.
func ParseColumn(name, delimiter string) (metric string, year int, ok bool) {
	name = strings.TrimSpace(name)
	rest := name
	if delimiter != "" {
		if i := strings.LastIndex(name, delimiter); i >= 0 {
			metric = strings.TrimSpace(name[:i])
			rest = name[i+len(delimiter):]
		}
	}

	year, ok = ExtractYear(rest)
	if !ok {
		return "", 0, false
	}
	return metric, year, true
}

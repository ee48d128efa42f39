// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package columns maps semantic roles (region, year, crop, amount) onto the
// header names actually present in a file.
package columns

import (
	"fmt"
	"strings"
)

// MatchMode selects how a candidate is compared with header names.
type MatchMode string

const (
	// Exact requires the header to equal the candidate.
	Exact MatchMode = "exact"
	// Substring accepts the first header that contains the candidate.
	Substring MatchMode = "substring"
)

// Role is one semantic column need and the header names that may satisfy it,
// in order of preference.
type Role struct {
	Name       string    `yaml:"name" json:"name"`
	Candidates []string  `yaml:"candidates" json:"candidates"`
	Required   bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Match      MatchMode `yaml:"match,omitempty" json:"match,omitempty"`
}

// Binding records which header satisfied a role.
type Binding struct {
	Role   string `json:"role"`
	Column string `json:"column"`
	Index  int    `json:"index"`
}

// Resolution holds bindings in role order.
type Resolution struct {
	Bindings []Binding `json:"bindings"`
}

// Column returns the header bound to role.
func (r Resolution) Column(role string) (string, bool) {
	for _, b := range r.Bindings {
		if b.Role == role {
			return b.Column, true
		}
	}
	return "", false
}

// Index returns the header position bound to role, or -1.
func (r Resolution) Index(role string) int {
	for _, b := range r.Bindings {
		if b.Role == role {
			return b.Index
		}
	}
	return -1
}

// Missing describes a required role no header could satisfy.
type Missing struct {
	Role       string   `json:"role"`
	Candidates []string `json:"candidates"`
}

// UnresolvedError is returned when at least one required role is missing.
// Its message is meant to be shown to the person who uploaded the file.
type UnresolvedError struct {
	Missing []Missing
}

func (e *UnresolvedError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = fmt.Sprintf("%s (expected one of: %s)", m.Role, strings.Join(m.Candidates, ", "))
	}
	return "missing required column: " + strings.Join(parts, "; ")
}

// Resolve binds every role to the first candidate present in header.
// Optional roles without a match are left out of the result.
func Resolve(header []string, roles []Role) (Resolution, error) {
	var res Resolution
	var missing []Missing

	for _, role := range roles {
		col, idx, ok := find(header, role)
		if ok {
			res.Bindings = append(res.Bindings, Binding{Role: role.Name, Column: col, Index: idx})
			continue
		}
		if role.Required {
			missing = append(missing, Missing{Role: role.Name, Candidates: role.Candidates})
		}
	}

	if len(missing) > 0 {
		return res, &UnresolvedError{Missing: missing}
	}
	return res, nil
}

// find walks candidates in order; the header order only breaks ties within a
// single substring candidate.
func find(header []string, role Role) (string, int, bool) {
	for _, candidate := range role.Candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		for i, h := range header {
			if h == candidate {
				return h, i, true
			}
		}
		if role.Match == Substring {
			for i, h := range header {
				if strings.Contains(h, candidate) {
					return h, i, true
				}
			}
		}
	}
	return "", -1, false
}

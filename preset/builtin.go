// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package preset

import (
	"github.com/sagacient/cute-charts-mcp-server/columns"
	"github.com/sagacient/cute-charts-mcp-server/feed"
	"github.com/sagacient/cute-charts-mcp-server/table"
)

// Builtin returns fresh copies of the presets for the KOSIS exports the
// dashboards were written for.
func Builtin() []*Preset {
	return []*Preset{
		{
			Name:        "energy",
			Description: "New and renewable energy production by source (toe), one column per year",
			Layout:      Wide,
			Roles: []columns.Role{
				{Name: RoleEntity, Candidates: []string{"에너지원별(2)"}, Required: true},
			},
			Filters: []RowFilter{
				{Column: "에너지원별(1)", Op: Contains, Value: "총생산량"},
			},
			LabelColumns:  []string{"에너지원별(1)", "에너지원별(3)"},
			DefaultMetric: "생산량",
			YearPrefix:    "20",
			Chart: feed.Chart{
				Kind:   feed.Line,
				X:      feed.FieldYear,
				Color:  feed.FieldEntity,
				Title:  "신·재생에너지 총생산량 추이",
				YLabel: "생산량 (toe)",
			},
		},
		{
			Name:        "crops",
			Description: "Food crop area and production by province, year row above metric row",
			Table:       table.Options{HeaderRows: 2},
			Layout:      Wide,
			Roles: []columns.Role{
				{Name: RoleEntity, Candidates: []string{"시도별", "지역"}, Required: true},
			},
			Delimiter: table.DefaultHeaderJoin,
			Exclude:   []string{"계"},
			Chart: feed.Chart{
				Kind:  feed.Bar,
				X:     feed.FieldYear,
				Color: feed.FieldMetric,
				Title: "식량작물 생산량",
			},
		},
		{
			Name:        "rice",
			Description: "Milled rice production by province, unit row below the header",
			Table:       table.Options{SkipDataRows: 1},
			Layout:      Wide,
			Roles: []columns.Role{
				{Name: RoleEntity, Candidates: []string{"시도별", "지역"}, Required: true},
			},
			DefaultMetric: "미곡 생산량 (톤)",
			Chart: feed.Chart{
				Kind:   feed.Bar,
				X:      feed.FieldYear,
				Color:  feed.FieldEntity,
				Title:  "연도별 미곡 생산량 변화",
				YLabel: "생산량 (톤)",
			},
		},
		{
			Name:        "production",
			Description: "Long table with province, year and production columns",
			Layout:      Long,
			Roles: []columns.Role{
				{Name: RoleEntity, Candidates: []string{"시도", "시도별", "지역"}, Required: true},
				{Name: RoleYear, Candidates: []string{"연도", "년도"}, Required: true},
				{Name: RoleValue, Candidates: []string{"생산량"}, Required: true, Match: columns.Substring},
			},
			Chart: feed.Chart{
				Kind:   feed.Bar,
				X:      feed.FieldYear,
				Color:  feed.FieldEntity,
				YLabel: "생산량 (톤)",
			},
		},
	}
}

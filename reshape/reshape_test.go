// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package reshape

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagacient/cute-charts-mcp-server/table"
)

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		in   string
		opts NumericOptions
		want string
	}{
		{in: " 1,234 ", want: "1234"},
		{in: "1,234,567.5", want: "1234567.5"},
		{in: "-", want: "0"},
		{in: " - ", want: "0"},
		{in: "-", opts: NumericOptions{SentinelMissing: true}, want: ""},
		{in: "-5", want: "-5"},
		{in: "x", opts: NumericOptions{Sentinel: "x"}, want: "0"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeNumeric(tt.in, tt.opts)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeNumeric(got, tt.opts), "normalization must be idempotent")
		})
	}
}

func TestParseNumeric(t *testing.T) {
	assert.Equal(t, Number(1234), ParseNumeric("1,234", NumericOptions{}))
	assert.Equal(t, Number(0), ParseNumeric("-", NumericOptions{}))
	assert.Equal(t, Number(-5), ParseNumeric("-5", NumericOptions{}))
	assert.False(t, ParseNumeric("-", NumericOptions{SentinelMissing: true}).Valid)
	assert.False(t, ParseNumeric("n/a", NumericOptions{}).Valid)
	assert.False(t, ParseNumeric("", NumericOptions{}).Valid)
	assert.False(t, ParseNumeric("NaN", NumericOptions{}).Valid)
	assert.False(t, ParseNumeric("Inf", NumericOptions{}).Valid)
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		name, delim string
		metric      string
		year        int
		ok          bool
	}{
		{name: "미곡:생산량 (톤)|1998.1", delim: "|", metric: "미곡:생산량 (톤)", year: 1998, ok: true},
		{name: "논벼:면적 (ha)|2020", delim: "|", metric: "논벼:면적 (ha)", year: 2020, ok: true},
		{name: "a|b|2001", delim: "|", metric: "a|b", year: 2001, ok: true},
		{name: "2015", delim: "|", metric: "", year: 2015, ok: true},
		{name: "2025년06월", delim: "", metric: "", year: 2025, ok: true},
		{name: "시도별", delim: "|", ok: false},
		{name: "12345", delim: "|", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metric, year, ok := ParseColumn(tt.name, tt.delim)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.metric, metric)
			assert.Equal(t, tt.year, year)
		})
	}
}

func cropsTable() *table.Table {
	return &table.Table{
		Header: []string{"시도별", "미곡:생산량 (톤)|1998", "미곡:생산량 (톤)|1999", "맥류:생산량 (톤)|1998"},
		Rows: [][]string{
			{"계", "5,000", "5,100", "900"},
			{"서울특별시", "1,234", "-", "12"},
			{"부산광역시", "2,000", "n/a", ""},
			{"", "1", "2", "3"},
		},
	}
}

func TestWideToLong(t *testing.T) {
	obs, err := WideToLong(cropsTable(), Options{
		IDColumn:  "시도별",
		Delimiter: "|",
		Exclude:   []string{"계"},
	})
	require.NoError(t, err)
	require.Len(t, obs, 6)

	assert.Equal(t, Observation{Entity: "서울특별시", Year: 1998, Metric: "미곡:생산량 (톤)", Value: Number(1234)}, obs[0])
	assert.Equal(t, Number(0), obs[1].Value, "sentinel defaults to zero")
	assert.Equal(t, "맥류:생산량 (톤)", obs[2].Metric)
	assert.False(t, obs[4].Value.Valid, "unparseable cells are missing")
	assert.False(t, obs[5].Value.Valid)
}

func TestWideToLongRoundTrip(t *testing.T) {
	tbl := cropsTable()
	obs, err := WideToLong(tbl, Options{IDColumn: "시도별", Delimiter: "|"})
	require.NoError(t, err)

	for r, row := range tbl.Rows {
		if row[0] == "" {
			continue
		}
		for c := 1; c < len(tbl.Header); c++ {
			metric, year, ok := ParseColumn(tbl.Header[c], "|")
			require.True(t, ok)

			var found []Observation
			for _, o := range obs {
				if o.Entity == row[0] && o.Metric == metric && o.Year == year {
					found = append(found, o)
				}
			}
			require.Len(t, found, 1, "row %d col %d", r, c)
			assert.Equal(t, ParseNumeric(tbl.Cell(r, c), NumericOptions{}), found[0].Value)
		}
	}
}

func TestWideToLongOptions(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"에너지원별(1)", "에너지원별(2)", "1999", "2019", "2020"},
		Rows: [][]string{
			{"총생산량", "석탄", "10", "20", "30"},
		},
	}

	obs, err := WideToLong(tbl, Options{
		IDColumn:      "에너지원별(2)",
		LabelColumns:  []string{"에너지원별(1)"},
		DefaultMetric: "생산량",
		YearPrefix:    "20",
	})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 2019, obs[0].Year)
	assert.Equal(t, "생산량", obs[0].Metric)
	assert.Equal(t, map[string]string{"에너지원별(1)": "총생산량"}, obs[0].Labels)

	_, err = WideToLong(tbl, Options{IDColumn: "없음"})
	assert.Error(t, err)

	_, err = WideToLong(tbl, Options{IDColumn: "에너지원별(2)", YearPrefix: "18"})
	assert.ErrorIs(t, err, ErrNoValueColumns)
}

func TestFromLong(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"시도", "연도", "생산량"},
		Rows: [][]string{
			{"경기", "2021", "300"},
			{"강원", "2020", "1,100"},
			{"경기", "2020", "250"},
			{"충북", "unknown", "1"},
			{"", "2020", "1"},
		},
	}

	obs, err := FromLong(tbl, LongOptions{Entity: "시도", Year: "연도", Value: "생산량"})
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, []int{2020, 2020, 2021}, []int{obs[0].Year, obs[1].Year, obs[2].Year})
	assert.Equal(t, "강원", obs[0].Entity, "sort is stable")
	assert.Equal(t, Number(1100), obs[0].Value)
	assert.Equal(t, "생산량", obs[0].Metric)

	_, err = FromLong(tbl, LongOptions{Entity: "시도", Year: "year", Value: "생산량"})
	assert.Error(t, err)
}

func TestAgeDistribution(t *testing.T) {
	tbl := &table.Table{
		Header: []string{
			"행정구역", "2025년06월_남_총인구수", "2025년06월_남_연령구간인구수",
			"2025년06월_남_0세", "2025년06월_남_1세", "2025년06월_남_100세 이상",
			"2025년06월_여_0세",
		},
		Rows: [][]string{
			{"서울특별시  (1100000000)", "1", "1", "9", "9", "9", "9"},
			{"전국  (1000000000)", "25,000", "25,000", "100,000", "", "5,000", "95,000"},
		},
	}

	got, err := AgeDistribution(tbl, AgeOptions{
		RegionColumn:   "행정구역",
		RegionContains: "전국",
		Prefix:         "2025년06월_남_",
		Group:          "남",
	})
	require.NoError(t, err)
	assert.Equal(t, []AgeCount{
		{Group: "남", Age: 0, Count: 100000},
		{Group: "남", Age: 1, Count: 0},
		{Group: "남", Age: 100, Count: 5000},
	}, got)

	_, err = AgeDistribution(tbl, AgeOptions{RegionColumn: "행정구역", RegionContains: "제주", Prefix: "x"})
	assert.ErrorIs(t, err, ErrNoMatchingRow)
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Number(1.5), {}})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null]`, string(data))

	var back []Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Value{Number(1.5), {}}, back)
}

func TestWriteCSV(t *testing.T) {
	obs := []Observation{
		{Entity: "서울", Year: 1998, Metric: "생산량", Value: Number(1234.5)},
		{Entity: "부산", Year: 1999, Metric: "생산량"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, obs))
	assert.Equal(t, "entity,year,metric,value\n서울,1998,생산량,1234.5\n부산,1999,생산량,\n", buf.String())

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, obs, back)

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "entity,year,metric,value\n", buf.String())
}

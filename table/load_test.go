// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package table

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

func encodeCP949(t *testing.T, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	require.NoError(t, err)
	return out
}

func TestParse(t *testing.T) {
	t.Run("utf-8 with BOM and padded header", func(t *testing.T) {
		raw := []byte("\xEF\xBB\xBF 시도별 , 2023 ,2024\n서울,\"1,200\",1300\n")

		tbl, err := Parse(raw, Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"시도별", "2023", "2024"}, tbl.Header)
		assert.Equal(t, EncodingUTF8, tbl.Encoding)
		require.Len(t, tbl.Rows, 1)
		assert.Equal(t, "1,200", tbl.Cell(0, 1))
	})

	t.Run("falls back to cp949 once", func(t *testing.T) {
		raw := encodeCP949(t, "행정구역,2025년06월_계_총인구수\n전국,51000000\n")

		tbl, err := Parse(raw, Options{})
		require.NoError(t, err)

		assert.Equal(t, EncodingCP949, tbl.Encoding)
		assert.Equal(t, "행정구역", tbl.Header[0])
		assert.Equal(t, "전국", tbl.Cell(0, 0))
	})

	t.Run("undecodable input surfaces an encoding error", func(t *testing.T) {
		_, err := Parse([]byte{0xFF, 0xFF, ',', 0xFF, '\n'}, Options{})
		assert.ErrorIs(t, err, ErrEncoding)
	})

	t.Run("explicit utf-8 does not fall back", func(t *testing.T) {
		raw := encodeCP949(t, "지역\n서울\n")
		_, err := Parse(raw, Options{Encoding: "utf-8"})
		assert.ErrorIs(t, err, ErrEncoding)
	})

	t.Run("unknown encoding name", func(t *testing.T) {
		_, err := Parse([]byte("a\n1\n"), Options{Encoding: "klingon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "klingon")
	})

	t.Run("two header rows are merged", func(t *testing.T) {
		raw := []byte("시도별,1998,1998.1\n시도별,미곡:면적 (ha),미곡:생산량 (톤)\n서울,10,20\n")

		tbl, err := Parse(raw, Options{HeaderRows: 2})
		require.NoError(t, err)

		assert.Equal(t, []string{"시도별", "미곡:면적 (ha)|1998", "미곡:생산량 (톤)|1998.1"}, tbl.Header)
		require.Len(t, tbl.Rows, 1)
	})

	t.Run("metadata and unit rows are skipped", func(t *testing.T) {
		raw := []byte("식량작물 생산량\n시도별,1998,1999\n시도별,톤,톤\n서울,1,2\n부산,3,4\n")

		tbl, err := Parse(raw, Options{SkipRows: 1, SkipDataRows: 1})
		require.NoError(t, err)

		assert.Equal(t, []string{"시도별", "1998", "1999"}, tbl.Header)
		require.Len(t, tbl.Rows, 2)
		assert.Equal(t, "서울", tbl.Cell(0, 0))
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := Parse([]byte("only\n"), Options{SkipRows: 1})
		assert.ErrorIs(t, err, ErrNoHeader)

		_, err = Parse([]byte("a,b\n"), Options{HeaderRows: 2})
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		tbl, err := Load(strings.NewReader("a;b\n1;2\n"), Options{Comma: ";"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tbl.Header)
		assert.Equal(t, "2", tbl.Cell(0, 1))
	})
}

func TestTableHelpers(t *testing.T) {
	tbl := &Table{
		Header: []string{"지역", "2024"},
		Rows:   [][]string{{"서울", "1"}, {"계"}, {"부산", "3"}},
	}

	assert.Equal(t, 1, tbl.Index("2024"))
	assert.Equal(t, -1, tbl.Index("2025"))
	assert.Equal(t, "", tbl.Cell(1, 1))
	assert.Equal(t, "", tbl.Cell(9, 0))
	assert.Len(t, tbl.Preview(2), 2)
	assert.Len(t, tbl.Preview(10), 3)

	filtered := tbl.Filter(func(row []string) bool { return row[0] != "계" })
	assert.Len(t, filtered.Rows, 2)
	assert.Len(t, tbl.Rows, 3)
}

func TestLoadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"에너지원별(1)", "2022", "2023"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"총생산량", "100", "120"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := LoadFile(path, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"에너지원별(1)", "2022", "2023"}, tbl.Header)
	assert.Equal(t, "120", tbl.Cell(0, 2))
	assert.Equal(t, EncodingUTF8, tbl.Encoding)
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

const (
	EncodingUTF8  = "utf-8"
	EncodingCP949 = "cp949"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// lookupEncoding maps user-facing names to decoders. UTF-8 maps to nil.
func lookupEncoding(name string) (encoding.Encoding, string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return nil, EncodingUTF8, nil
	case "cp949", "euc-kr", "euckr", "ms949", "uhc":
		return korean.EUCKR, EncodingCP949, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, "iso-8859-1", nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, "windows-1252", nil
	default:
		return nil, "", fmt.Errorf("unknown encoding %q", name)
	}
}

// Decode converts raw bytes to UTF-8 following opts. With no explicit
// encoding, valid UTF-8 is used as is and the fallback is attempted once.
// It returns the decoded text and the name of the encoding that was used.
func Decode(data []byte, opts Options) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if opts.Encoding != "" {
		enc, name, err := lookupEncoding(opts.Encoding)
		if err != nil {
			return nil, "", err
		}
		if enc == nil {
			if !utf8.Valid(data) {
				return nil, "", ErrEncoding
			}
			return data, name, nil
		}
		return decodeWith(data, enc, name)
	}

	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}

	fallback := opts.Fallback
	if fallback == "" {
		fallback = EncodingCP949
	}
	enc, name, err := lookupEncoding(fallback)
	if err != nil {
		return nil, "", err
	}
	if enc == nil {
		return nil, "", ErrEncoding
	}
	return decodeWith(data, enc, name)
}

func decodeWith(data []byte, enc encoding.Encoding, name string) ([]byte, string, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, "", ErrEncoding
	}
	return out, name, nil
}

// Load reads CSV from r.
func Load(r io.Reader, opts Options) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return Parse(raw, opts)
}

// Parse decodes and parses CSV bytes.
func Parse(raw []byte, opts Options) (*Table, error) {
	text, used, err := Decode(raw, opts)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if opts.Comma != "" {
		r, _ := utf8.DecodeRuneInString(opts.Comma)
		cr.Comma = r
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return fromRecords(records, opts, used)
}

// LoadFile loads a .csv or .xlsx file. Other extensions are read as CSV.
func LoadFile(path string, opts Options) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path, opts)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(raw, opts)
}

// loadXLSX reads the first sheet. XLSX text is always UTF-8.
func loadXLSX(path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoHeader
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromRecords(records, opts, EncodingUTF8)
}

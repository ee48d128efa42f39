// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package scanner inspects uploaded tables before they are stored: the file
// type is checked, the text encoding of CSV files is guessed, and files are
// optionally scanned with ClamAV.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedType is returned for extensions other than .csv and .xlsx.
	ErrUnsupportedType = errors.New("unsupported file type (expected .csv or .xlsx)")

	// ErrBinaryContent is returned for CSV uploads that contain NUL bytes.
	ErrBinaryContent = errors.New("file looks binary, not a delimited text table")

	// ErrInvalidWorkbook is returned for .xlsx uploads without a zip header.
	ErrInvalidWorkbook = errors.New("file is not a valid .xlsx workbook")
)

const sniffSize = 64 * 1024

var zipMagic = []byte("PK\x03\x04")

// Config configures an Inspector.
type Config struct {
	// ClamAV enables malware scanning.
	ClamAV bool `yaml:"clamav"`
	// FailOpen accepts files when ClamAV is not installed.
	FailOpen    bool   `yaml:"fail_open"`
	ClamdSocket string `yaml:"clamd_socket"`
}

// Report describes an accepted file.
type Report struct {
	Type       string     `json:"type"`
	Charset    string     `json:"charset,omitempty"`
	Language   string     `json:"language,omitempty"`
	Confidence int        `json:"confidence,omitempty"`
	Scan       ScanResult `json:"scan"`
}

// Inspector validates uploads.
type Inspector struct {
	clam   *ClamAV
	logger *zap.Logger
}

// NewInspector creates an inspector.
func NewInspector(cfg Config, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		clam:   newClamAV(cfg.ClamAV, cfg.FailOpen, cfg.ClamdSocket, logger),
		logger: logger,
	}
}

// ScanningEnabled reports whether ClamAV scanning is on.
func (in *Inspector) ScanningEnabled() bool {
	return in.clam.enabled
}

// ScannerAvailable reports whether scanning is enabled and ClamAV answers.
func (in *Inspector) ScannerAvailable(ctx context.Context) bool {
	return in.clam.enabled && in.clam.IsAvailable(ctx)
}

// Inspect checks the file at path. name is the original upload name and
// decides the expected type.
func (in *Inspector) Inspect(ctx context.Context, name, path string) (*Report, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, ErrUnsupportedType
	}

	head, err := readHead(path)
	if err != nil {
		return nil, err
	}

	report := &Report{Type: strings.TrimPrefix(ext, ".")}
	if ext == ".xlsx" {
		if !bytes.HasPrefix(head, zipMagic) {
			return nil, ErrInvalidWorkbook
		}
	} else {
		if bytes.IndexByte(head, 0) >= 0 {
			return nil, ErrBinaryContent
		}
		if len(head) > 0 {
			if det, err := chardet.NewTextDetector().DetectBest(head); err == nil && det != nil {
				report.Charset = det.Charset
				report.Language = det.Language
				report.Confidence = det.Confidence
			}
		}
	}

	report.Scan = in.clam.Scan(ctx, path)
	if report.Scan.Error != nil {
		return nil, report.Scan.Error
	}
	if !report.Scan.Clean {
		in.logger.Warn("SECURITY: rejected upload", zap.String("name", name), zap.String("threat", report.Scan.Threat))
		return nil, &MalwareError{Threat: report.Scan.Threat}
	}
	return report, nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, sniffSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return head, nil
}

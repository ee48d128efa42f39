// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrScannerUnavailable is returned when ClamAV is required but missing.
var ErrScannerUnavailable = errors.New("malware scanner unavailable")

// MalwareError is returned when ClamAV reports a threat.
type MalwareError struct {
	Threat string
}

func (e *MalwareError) Error() string {
	return fmt.Sprintf("malware detected: %s", e.Threat)
}

// ScanResult holds the outcome of a ClamAV run.
type ScanResult struct {
	Clean   bool   `json:"clean"`
	Threat  string `json:"threat,omitempty"`
	Scanned bool   `json:"scanned"`
	Error   error  `json:"-"`
}

// command runs a ClamAV binary and returns stdout, stderr and the exit code.
// It is a variable so tests can fake the binaries.
var command = func(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return "", "", -1, err
	}
	return stdout.String(), stderr.String(), 0, nil
}

// ClamAV scans files with clamdscan, falling back to clamscan.
type ClamAV struct {
	enabled     bool
	failOpen    bool
	clamdSocket string
	logger      *zap.Logger

	mu          sync.Mutex
	available   bool
	checkedOnce bool
}

func newClamAV(enabled, failOpen bool, socket string, logger *zap.Logger) *ClamAV {
	return &ClamAV{enabled: enabled, failOpen: failOpen, clamdSocket: socket, logger: logger}
}

// IsAvailable reports whether a ClamAV binary answered --version.
func (c *ClamAV) IsAvailable(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checkedOnce {
		return c.available
	}
	c.checkedOnce = true

	for _, bin := range []string{"clamdscan", "clamscan"} {
		if _, _, code, err := command(ctx, bin, "--version"); err == nil && code == 0 {
			c.available = true
			c.logger.Info("ClamAV scanner available", zap.String("binary", bin))
			return true
		}
	}

	mode := "rejected (fail-closed mode)"
	if c.failOpen {
		mode = "skipped (fail-open mode)"
	}
	c.logger.Warn("ClamAV not available, scans will be " + mode)
	return false
}

// Scan checks one file. When ClamAV is missing the result is clean in
// fail-open mode and an error otherwise.
func (c *ClamAV) Scan(ctx context.Context, path string) ScanResult {
	if !c.enabled {
		return ScanResult{Clean: true}
	}

	if !c.IsAvailable(ctx) {
		if c.failOpen {
			c.logger.Warn("ClamAV unavailable, allowing file without scan", zap.String("path", path))
			return ScanResult{Clean: true}
		}
		return ScanResult{Error: ErrScannerUnavailable}
	}

	args := []string{"--no-summary", "--infected"}
	if c.clamdSocket != "" {
		args = append(args, "--socket="+c.clamdSocket)
	}
	result := c.run(ctx, "clamdscan", append(args, path)...)
	if result.Error != nil {
		c.logger.Debug("clamdscan failed, trying clamscan", zap.Error(result.Error))
		result = c.run(ctx, "clamscan", "--no-summary", "--infected", path)
	}
	return result
}

// run interprets ClamAV exit codes: 0 clean, 1 infected, 2 error.
func (c *ClamAV) run(ctx context.Context, bin string, args ...string) ScanResult {
	stdout, stderr, code, err := command(ctx, bin, args...)
	if err != nil {
		return ScanResult{Error: fmt.Errorf("failed to run %s: %w", bin, err)}
	}

	switch code {
	case 0:
		return ScanResult{Clean: true, Scanned: true}
	case 1:
		threat := parseThreatName(stdout)
		c.logger.Warn("Malware detected", zap.String("threat", threat))
		return ScanResult{Threat: threat, Scanned: true}
	default:
		return ScanResult{Error: fmt.Errorf("%s error: %s", bin, strings.TrimSpace(stderr))}
	}
}

// parseThreatName extracts the name from "/path/to/file: Name FOUND".
func parseThreatName(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasSuffix(line, "FOUND") {
			continue
		}
		if i := strings.LastIndex(line, ":"); i >= 0 {
			return strings.TrimSpace(strings.TrimSuffix(line[i+1:], "FOUND"))
		}
	}
	return "Unknown threat"
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sagacient/cute-charts-mcp-server/output"
)

const outputsDisabled = "Output management not configured. Set OUTPUT_DIR to enable output persistence."

// ListOutputsTool returns the list_outputs tool definition.
func ListOutputsTool() mcp.Tool {
	return mcp.NewTool("list_outputs",
		mcp.WithDescription("List rendered charts, or the files of one render. Returns output IDs with their files."),
		mcp.WithString("output_id",
			mcp.Description("Optional output ID to list files for. If omitted, lists all renders."),
		),
	)
}

// ListOutputsHandler handles the list_outputs tool.
func (t *ChartTools) ListOutputsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.outputs == nil {
		return mcp.NewToolResultError(outputsDisabled), nil
	}

	if id := request.GetString("output_id", ""); id != "" {
		info, err := t.outputs.Get(id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list files: %v", err)), nil
		}
		text := fmt.Sprintf("Files in output %s:\n", id)
		if len(info.Files) == 0 {
			text += "  (no files)\n"
		}
		for _, f := range info.Files {
			text += fmt.Sprintf("  - %s\n", f)
		}
		return mcp.NewToolResultText(text), nil
	}

	renders, err := t.outputs.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list outputs: %v", err)), nil
	}
	if len(renders) == 0 {
		return mcp.NewToolResultText("No outputs found."), nil
	}

	text := fmt.Sprintf("Found %d output(s):\n\n", len(renders))
	for _, r := range renders {
		text += fmt.Sprintf("Output: %s\n", r.ID)
		if r.Title != "" {
			text += fmt.Sprintf("  Title: %s\n", r.Title)
		}
		if r.Preset != "" {
			text += fmt.Sprintf("  Preset: %s\n", r.Preset)
		}
		if r.Source != "" {
			text += fmt.Sprintf("  Source: %s\n", r.Source)
		}
		text += fmt.Sprintf("  Created: %s (%s)\n", r.CreatedAt.Format(time.RFC3339), humanize.Time(r.CreatedAt))
		text += fmt.Sprintf("  Expires: %s\n", r.ExpiresAt.Format(time.RFC3339))
		text += fmt.Sprintf("  Files: %s\n\n", strings.Join(r.Files, ", "))
	}
	return mcp.NewToolResultText(text), nil
}

// GetOutputTool returns the get_output tool definition.
func GetOutputTool() mcp.Tool {
	return mcp.NewTool("get_output",
		mcp.WithDescription("Get one file of a render: chart.png is returned as an image, chart.svg, data.csv and feed.json as text."),
		mcp.WithString("output_id",
			mcp.Required(),
			mcp.Description("The output ID returned by render_chart."),
		),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("The name of the file to retrieve."),
		),
	)
}

// GetOutputHandler handles the get_output tool.
func (t *ChartTools) GetOutputHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.outputs == nil {
		return mcp.NewToolResultError(outputsDisabled), nil
	}

	id, err := request.RequireString("output_id")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'output_id': %v", err)), nil
	}
	filename, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'filename': %v", err)), nil
	}

	data, err := t.outputs.ReadFile(id, filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get file: %v", err)), nil
	}

	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return mcp.NewToolResultImage(fmt.Sprintf("%s/%s (%s)", id, filename, humanize.Bytes(uint64(len(data)))),
			base64.StdEncoding.EncodeToString(data), "image/png"), nil
	case isTextFile(lower):
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Binary file: %s (%d bytes)\nOutput: %s", filename, len(data), id)), nil
}

// DeleteOutputsTool returns the delete_outputs tool definition.
func DeleteOutputsTool() mcp.Tool {
	return mcp.NewTool("delete_outputs",
		mcp.WithDescription("Delete one render or all renders."),
		mcp.WithString("output_id",
			mcp.Description("Optional output ID to delete. If omitted, deletes ALL renders (use with caution)."),
		),
	)
}

// DeleteOutputsHandler handles the delete_outputs tool.
func (t *ChartTools) DeleteOutputsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.outputs == nil {
		return mcp.NewToolResultError(outputsDisabled), nil
	}

	if id := request.GetString("output_id", ""); id != "" {
		if err := t.outputs.Delete(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete output: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted output %s", id)), nil
	}

	count, err := t.outputs.DeleteAll()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete outputs: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted %d output(s)", count)), nil
}

// isTextFile returns true if the file extension suggests a text file.
func isTextFile(filename string) bool {
	for _, ext := range []string{".txt", ".csv", ".json", ".svg", ".md", ".log", ".yaml", ".yml"} {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// StatusTool returns the server_status tool definition.
func StatusTool() mcp.Tool {
	return mcp.NewTool("server_status",
		mcp.WithDescription("Get the current status of the Cute Charts MCP server, including worker pool statistics, presets, stored outputs and uploads."),
	)
}

// StatusHandler handles the server_status tool.
func (t *ChartTools) StatusHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := t.pool.Stats()

	serverStatus := "READY"
	if t.pool.IsFull() {
		serverStatus = "BUSY (all workers occupied)"
	}

	outputs := "disabled"
	if t.outputs != nil {
		if list, err := t.outputs.List(); err == nil {
			outputs = fmt.Sprintf("%d stored", len(list))
		} else if errors.Is(err, output.ErrNotConfigured) {
			outputs = "disabled"
		} else {
			outputs = fmt.Sprintf("error: %v", err)
		}
	}

	uploads := "disabled (stdio mode)"
	if t.fileStore != nil {
		uploads = fmt.Sprintf("%d stored, max %s, ttl %s",
			len(t.fileStore.List()), humanize.Bytes(uint64(t.fileStore.MaxSize())), t.fileStore.TTL())
	}

	bookmarks := "disabled"
	if t.book != nil {
		if list, err := t.book.List(ctx); err == nil {
			bookmarks = fmt.Sprintf("%d saved", len(list))
		} else {
			bookmarks = fmt.Sprintf("error: %v", err)
		}
	}

	status := fmt.Sprintf(`Cute Charts MCP Server Status
=============================
Max Workers:      %d
Active Workers:   %d
Available Slots:  %d
Total Processed:  %d
Total Rejected:   %d
Presets:          %d
Outputs:          %s
Uploads:          %s
Bookmarks:        %s
Server Status:    %s`,
		stats.MaxWorkers,
		stats.ActiveWorkers,
		stats.AvailableSlots,
		stats.TotalProcessed,
		stats.TotalRejected,
		len(t.presets.List()),
		outputs,
		uploads,
		bookmarks,
		serverStatus,
	)
	return mcp.NewToolResultText(status), nil
}

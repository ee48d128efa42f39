// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sagacient/cute-charts-mcp-server/bookmark"
)

const bookmarksDisabled = "Bookmarks not configured. Set BOOKMARKS_PATH to enable the bookmark store."

// GeocodeAddressTool returns the geocode_address tool definition.
func GeocodeAddressTool() mcp.Tool {
	return mcp.NewTool("geocode_address",
		mcp.WithDescription("Look up the latitude and longitude of an address or place name."),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Address or place name, e.g. '서울특별시 중구 세종대로 110'"),
		),
	)
}

// GeocodeAddressHandler handles the geocode_address tool.
func (t *ChartTools) GeocodeAddressHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.geocoder == nil {
		return mcp.NewToolResultError("Geocoding is disabled."), nil
	}
	address, err := request.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'address': %v", err)), nil
	}

	p, err := t.geocoder.Geocode(ctx, address)
	if err != nil {
		return t.toolError("geocode_address", err)
	}
	return jsonResult(map[string]interface{}{
		"address": address,
		"lat":     p.Lat,
		"lon":     p.Lon,
	})
}

// AddBookmarkTool returns the add_bookmark tool definition.
func AddBookmarkTool() mcp.Tool {
	return mcp.NewTool("add_bookmark",
		mcp.WithDescription("Save a named place. Give lat and lon together, or an address (or just a name) to geocode."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name of the place"),
		),
		mcp.WithString("address",
			mcp.Description("Address to geocode when coordinates are omitted"),
		),
		mcp.WithNumber("lat", mcp.Description("Latitude in [-90, 90]")),
		mcp.WithNumber("lon", mcp.Description("Longitude in [-180, 180]")),
	)
}

// AddBookmarkHandler handles the add_bookmark tool.
func (t *ChartTools) AddBookmarkHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.book == nil {
		return mcp.NewToolResultError(bookmarksDisabled), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'name': %v", err)), nil
	}
	lat, err := floatArg(request, "lat")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lon, err := floatArg(request, "lon")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bm, err := t.book.Add(ctx, bookmark.AddRequest{
		Name:    name,
		Address: request.GetString("address", ""),
		Lat:     lat,
		Lon:     lon,
	})
	if err != nil {
		return t.toolError("add_bookmark", err)
	}
	return jsonResult(bm)
}

// ListBookmarksTool returns the list_bookmarks tool definition.
func ListBookmarksTool() mcp.Tool {
	return mcp.NewTool("list_bookmarks",
		mcp.WithDescription("List saved places with the map centre, or as a GeoJSON FeatureCollection."),
		mcp.WithString("format",
			mcp.Description("Output format (default: json)"),
			mcp.Enum("json", "geojson"),
		),
	)
}

// ListBookmarksHandler handles the list_bookmarks tool.
func (t *ChartTools) ListBookmarksHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.book == nil {
		return mcp.NewToolResultError(bookmarksDisabled), nil
	}
	list, err := t.book.List(ctx)
	if err != nil {
		return t.toolError("list_bookmarks", err)
	}

	if request.GetString("format", "json") == "geojson" {
		return jsonResult(bookmark.GeoJSON(list))
	}
	return jsonResult(map[string]interface{}{
		"bookmarks": list,
		"center":    bookmark.Center(list),
		"count":     len(list),
	})
}

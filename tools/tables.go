// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/columns"
	"github.com/sagacient/cute-charts-mcp-server/feed"
	"github.com/sagacient/cute-charts-mcp-server/output"
	"github.com/sagacient/cute-charts-mcp-server/pipeline"
	"github.com/sagacient/cute-charts-mcp-server/preset"
	"github.com/sagacient/cute-charts-mcp-server/render"
	"github.com/sagacient/cute-charts-mcp-server/reshape"
	"github.com/sagacient/cute-charts-mcp-server/table"
)

func sourceOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("file",
			mcp.Description("Path or upload:// reference of a CSV or XLSX export"),
		),
		mcp.WithArray("files",
			mcp.Description("Several exports processed with the same settings, in order"),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
		mcp.WithString("preset",
			mcp.Description("Preset name (see list_presets). Without a preset, entity_column is required."),
		),
		mcp.WithString("encoding",
			mcp.Description("Source encoding, e.g. utf-8 or cp949 (default: UTF-8 with a cp949 fallback)"),
		),
		mcp.WithNumber("skip_rows",
			mcp.Description("Metadata rows above the header to skip"),
		),
		mcp.WithNumber("header_rows",
			mcp.Description("Header rows: 1, or 2 for year-over-metric headers"),
		),
	}
}

func customOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("layout",
			mcp.Description("Table layout when no preset is given (default: wide)"),
			mcp.Enum(string(preset.Wide), string(preset.Long)),
		),
		mcp.WithString("entity_column",
			mcp.Description("Column naming the entity (region, energy source, ...)"),
		),
		mcp.WithString("year_column", mcp.Description("Year column of a long table")),
		mcp.WithString("value_column", mcp.Description("Value column of a long table")),
		mcp.WithString("metric_column", mcp.Description("Optional metric column of a long table")),
		mcp.WithString("delimiter",
			mcp.Description("Separator between metric and year in wide column names, e.g. '|'"),
		),
		mcp.WithString("default_metric",
			mcp.Description("Metric name for columns that carry only a year"),
		),
		mcp.WithString("year_prefix",
			mcp.Description("Only use year columns starting with this text, e.g. '20'"),
		),
		mcp.WithArray("exclude",
			mcp.Description("Entities to drop, e.g. totals rows such as '계'"),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
		mcp.WithBoolean("dash_missing",
			mcp.Description("Treat '-' cells as missing instead of zero. Overrides the preset's setting."),
		),
	}
}

func queryOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithArray("entities",
			mcp.Description("Entities to keep (default: all)"),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
		mcp.WithArray("metrics",
			mcp.Description("Metrics to keep (default: all)"),
			mcp.Items(map[string]interface{}{"type": "string"}),
		),
		mcp.WithNumber("year_from", mcp.Description("First year to keep")),
		mcp.WithNumber("year_to", mcp.Description("Last year to keep")),
		mcp.WithString("kind",
			mcp.Description("Chart kind (default: the preset's, else bar)"),
			mcp.Enum(string(feed.Bar), string(feed.Line), string(feed.Pie)),
		),
		mcp.WithString("x",
			mcp.Description("Field on the x axis (default: year)"),
			mcp.Enum(feed.FieldYear, feed.FieldEntity, feed.FieldMetric),
		),
		mcp.WithString("color",
			mcp.Description("Field that splits series (default: entity)"),
			mcp.Enum(feed.FieldEntity, feed.FieldYear, feed.FieldMetric),
		),
		mcp.WithString("title", mcp.Description("Chart title")),
		mcp.WithString("y_label", mcp.Description("Y axis label")),
	}
}

func newTool(name, description string, groups ...[]mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, g := range groups {
		opts = append(opts, g...)
	}
	return mcp.NewTool(name, opts...)
}

// source is the parsed file and preset part of a request.
type source struct {
	names  []string
	paths  []string
	preset *preset.Preset
}

func (t *ChartTools) parseSource(request mcp.CallToolRequest) (*source, error) {
	names, paths, err := t.parseFiles(request)
	if err != nil {
		return nil, err
	}
	p, err := t.selectPreset(request)
	if err != nil {
		return nil, err
	}
	return &source{names: names, paths: paths, preset: p}, nil
}

// parseFiles reads 'file' and 'files' and resolves upload references.
func (t *ChartTools) parseFiles(request mcp.CallToolRequest) ([]string, []string, error) {
	names, err := stringsArg(request, "files")
	if err != nil {
		return nil, nil, err
	}
	if f := request.GetString("file", ""); f != "" {
		names = append([]string{f}, names...)
	}
	if len(names) == 0 {
		return nil, nil, errors.New("either 'file' or 'files' is required")
	}
	paths, err := t.resolveFilePaths(names)
	if err != nil {
		return nil, nil, err
	}
	return names, paths, nil
}

// selectPreset returns the named preset, or one built from the custom
// arguments, with the request's table overrides applied.
func (t *ChartTools) selectPreset(request mcp.CallToolRequest) (*preset.Preset, error) {
	var (
		p   *preset.Preset
		err error
	)
	if name := request.GetString("preset", ""); name != "" {
		p, err = t.presets.Get(name)
	} else {
		p, err = customPreset(request)
	}
	if err != nil {
		return nil, err
	}
	applyTableOptions(request, &p.Table)
	if _, ok := request.GetArguments()["dash_missing"]; ok {
		p.Numeric.SentinelMissing = boolArg(request, "dash_missing")
	}
	return p, nil
}

func applyTableOptions(request mcp.CallToolRequest, opts *table.Options) {
	if enc := request.GetString("encoding", ""); enc != "" {
		opts.Encoding = enc
	}
	if n := int(request.GetFloat("skip_rows", -1)); n >= 0 {
		opts.SkipRows = n
	}
	if n := int(request.GetFloat("header_rows", 0)); n > 0 {
		opts.HeaderRows = n
	}
}

func customPreset(request mcp.CallToolRequest) (*preset.Preset, error) {
	entity := request.GetString("entity_column", "")
	if entity == "" {
		return nil, errors.New("either 'preset' or 'entity_column' is required")
	}
	exclude, err := stringsArg(request, "exclude")
	if err != nil {
		return nil, err
	}

	p := &preset.Preset{
		Name:          "custom",
		Layout:        preset.Layout(request.GetString("layout", string(preset.Wide))),
		Delimiter:     request.GetString("delimiter", ""),
		DefaultMetric: request.GetString("default_metric", ""),
		YearPrefix:    request.GetString("year_prefix", ""),
		Exclude:       exclude,
	}
	addRole := func(name, column string, required bool) {
		if column != "" {
			p.Roles = append(p.Roles, columns.Role{Name: name, Candidates: []string{column}, Required: required})
		}
	}
	addRole(preset.RoleEntity, entity, true)
	addRole(preset.RoleYear, request.GetString("year_column", ""), true)
	addRole(preset.RoleValue, request.GetString("value_column", ""), true)
	addRole(preset.RoleMetric, request.GetString("metric_column", ""), false)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func boolArg(request mcp.CallToolRequest, key string) bool {
	switch v := request.GetArguments()[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func parseQuery(request mcp.CallToolRequest) (feed.Query, feed.Chart, error) {
	entities, err := stringsArg(request, "entities")
	if err != nil {
		return feed.Query{}, feed.Chart{}, err
	}
	metrics, err := stringsArg(request, "metrics")
	if err != nil {
		return feed.Query{}, feed.Chart{}, err
	}
	q := feed.Query{
		Entities: entities,
		Metrics:  metrics,
		YearFrom: int(request.GetFloat("year_from", 0)),
		YearTo:   int(request.GetFloat("year_to", 0)),
	}
	c := feed.Chart{
		Kind:   feed.Kind(request.GetString("kind", "")),
		X:      request.GetString("x", ""),
		Color:  request.GetString("color", ""),
		Title:  request.GetString("title", ""),
		YLabel: request.GetString("y_label", ""),
	}
	return q, c, nil
}

// reshapeAll loads and reshapes every file of src. Observations are
// concatenated in file order.
func (t *ChartTools) reshapeAll(ctx context.Context, src *source) ([]*pipeline.Result, []reshape.Observation, error) {
	tables, err := pipeline.LoadAll(ctx, src.paths, src.preset.Table, t.loadConcurrency)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*pipeline.Result, len(tables))
	var obs []reshape.Observation
	for i, tbl := range tables {
		res, err := pipeline.Reshape(tbl, src.preset)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", src.names[i], err)
		}
		results[i] = res
		obs = append(obs, res.Observations...)
	}
	return results, obs, nil
}

// buildFeed runs the full pipeline for a chart request.
func (t *ChartTools) buildFeed(ctx context.Context, request mcp.CallToolRequest) (*source, *feed.Feed, error) {
	src, err := t.parseSource(request)
	if err != nil {
		return nil, nil, err
	}
	q, c, err := parseQuery(request)
	if err != nil {
		return nil, nil, err
	}
	_, obs, err := t.reshapeAll(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	f, err := feed.Build(obs, q, pipeline.MergeChart(src.preset.Chart, c))
	if err != nil {
		return nil, nil, err
	}
	return src, f, nil
}

// InspectTableTool returns the inspect_table tool definition.
func InspectTableTool() mcp.Tool {
	return newTool("inspect_table",
		"Load a statistics export and show its detected encoding, header and first rows. Use it to find the column names before reshaping.",
		[]mcp.ToolOption{
			mcp.WithNumber("preview_rows", mcp.Description("Number of rows to preview (default: 5)")),
		},
		sourceOptions(),
	)
}

type inspection struct {
	File     string     `json:"file"`
	Encoding string     `json:"encoding"`
	Columns  []string   `json:"columns"`
	RowCount int        `json:"row_count"`
	Preview  [][]string `json:"preview"`
}

// InspectTableHandler handles the inspect_table tool.
func (t *ChartTools) InspectTableHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	previewRows := int(request.GetFloat("preview_rows", 5))
	if previewRows < 1 {
		previewRows = 5
	}

	var out []inspection
	err := t.pool.Do(ctx, func(ctx context.Context) error {
		names, paths, err := t.parseFiles(request)
		if err != nil {
			return err
		}

		var opts table.Options
		if request.GetString("preset", "") != "" {
			p, err := t.selectPreset(request)
			if err != nil {
				return err
			}
			opts = p.Table
		} else {
			applyTableOptions(request, &opts)
		}

		tables, err := pipeline.LoadAll(ctx, paths, opts, t.loadConcurrency)
		if err != nil {
			return err
		}
		for i, tbl := range tables {
			out = append(out, inspection{
				File:     names[i],
				Encoding: tbl.Encoding,
				Columns:  tbl.Header,
				RowCount: len(tbl.Rows),
				Preview:  tbl.Preview(previewRows),
			})
		}
		return nil
	})
	if err != nil {
		return t.toolError("inspect_table", err)
	}
	if len(out) == 1 {
		return jsonResult(out[0])
	}
	return jsonResult(out)
}

// ResolveColumnsTool returns the resolve_columns tool definition.
func ResolveColumnsTool() mcp.Tool {
	return newTool("resolve_columns",
		"Check which header of an export satisfies each semantic role (entity, year, value, metric) of a preset or of explicit candidate lists.",
		[]mcp.ToolOption{
			mcp.WithObject("roles",
				mcp.Description(`Candidate headers per role, in order of preference, e.g. {"entity": ["시도별", "지역"]}. Every listed role is required. Overrides the preset's roles.`),
			),
		},
		sourceOptions(),
	)
}

type resolution struct {
	File     string            `json:"file"`
	Bindings []columns.Binding `json:"bindings"`
	Missing  []columns.Missing `json:"missing,omitempty"`
}

// ResolveColumnsHandler handles the resolve_columns tool.
func (t *ChartTools) ResolveColumnsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roles, err := parseRoles(request.GetArguments()["roles"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'roles': %v", err)), nil
	}

	var out []resolution
	err = t.pool.Do(ctx, func(ctx context.Context) error {
		names, paths, err := t.parseFiles(request)
		if err != nil {
			return err
		}
		var p *preset.Preset
		if len(roles) > 0 && request.GetString("preset", "") == "" {
			p = &preset.Preset{Name: "custom"}
			applyTableOptions(request, &p.Table)
		} else if p, err = t.selectPreset(request); err != nil {
			return err
		}
		if len(roles) > 0 {
			p.Roles = roles
		}
		src := &source{names: names, paths: paths, preset: p}

		tables, err := pipeline.LoadAll(ctx, src.paths, src.preset.Table, t.loadConcurrency)
		if err != nil {
			return err
		}
		for i, tbl := range tables {
			filtered, err := pipeline.Filter(tbl, src.preset.Filters)
			if err != nil {
				return fmt.Errorf("%s: %w", src.names[i], err)
			}
			res, err := columns.Resolve(filtered.Header, src.preset.Roles)
			r := resolution{File: src.names[i], Bindings: res.Bindings}
			var unresolved *columns.UnresolvedError
			if errors.As(err, &unresolved) {
				r.Missing = unresolved.Missing
			} else if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return t.toolError("resolve_columns", err)
	}
	return jsonResult(out)
}

// parseRoles reads {"role": ["candidate", ...]} sorted by role name.
func parseRoles(v interface{}) ([]columns.Role, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	roles := make([]columns.Role, 0, len(names))
	for _, name := range names {
		candidates, err := toStringSlice(m[name])
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", name, err)
		}
		roles = append(roles, columns.Role{Name: name, Candidates: candidates, Required: true})
	}
	return roles, nil
}

// ReshapeTableTool returns the reshape_table tool definition.
func ReshapeTableTool() mcp.Tool {
	return newTool("reshape_table",
		"Convert a wide statistics export (one column per year or metric|year) into a long table with entity, year, metric and value columns.",
		[]mcp.ToolOption{
			mcp.WithString("format",
				mcp.Description("Output format (default: csv)"),
				mcp.Enum("csv", "json"),
			),
		},
		sourceOptions(),
		customOptions(),
	)
}

// ReshapeTableHandler handles the reshape_table tool.
func (t *ChartTools) ReshapeTableHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "csv")
	if format != "csv" && format != "json" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'format': %q", format)), nil
	}

	var results []*pipeline.Result
	var obs []reshape.Observation
	err := t.pool.Do(ctx, func(ctx context.Context) error {
		src, err := t.parseSource(request)
		if err != nil {
			return err
		}
		results, obs, err = t.reshapeAll(ctx, src)
		return err
	})
	if err != nil {
		return t.toolError("reshape_table", err)
	}

	if format == "json" {
		if len(results) == 1 {
			return jsonResult(results[0])
		}
		return jsonResult(results)
	}
	var buf bytes.Buffer
	if err := reshape.WriteCSV(&buf, obs); err != nil {
		return t.toolError("reshape_table", err)
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// ChartFeedTool returns the chart_feed tool definition.
func ChartFeedTool() mcp.Tool {
	return newTool("chart_feed",
		"Reshape an export, apply entity/metric/year filters and return the points a chart would draw.",
		sourceOptions(),
		customOptions(),
		queryOptions(),
	)
}

type feedSummary struct {
	Chart    feed.Chart   `json:"chart"`
	Entities []string     `json:"entities"`
	Metrics  []string     `json:"metrics"`
	Years    []int        `json:"years"`
	Points   []feed.Point `json:"points"`
}

func summarize(f *feed.Feed) feedSummary {
	return feedSummary{
		Chart:    f.Chart,
		Entities: feed.Entities(f.Observations),
		Metrics:  feed.Metrics(f.Observations),
		Years:    feed.Years(f.Observations),
		Points:   f.Points(),
	}
}

// ChartFeedHandler handles the chart_feed tool.
func (t *ChartTools) ChartFeedHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f *feed.Feed
	err := t.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		_, f, err = t.buildFeed(ctx, request)
		return err
	})
	if err != nil {
		return t.toolError("chart_feed", err)
	}
	return jsonResult(summarize(f))
}

// RenderChartTool returns the render_chart tool definition.
func RenderChartTool() mcp.Tool {
	return newTool("render_chart",
		"Render a filtered chart of an export to PNG or SVG. The image, its data (data.csv) and feed (feed.json) are kept as an output retrievable with get_output.",
		[]mcp.ToolOption{
			mcp.WithString("format",
				mcp.Description("Image format (default: server setting)"),
				mcp.Enum(string(render.PNG), string(render.SVG)),
			),
			mcp.WithNumber("width", mcp.Description("Image width in pixels")),
			mcp.WithNumber("height", mcp.Description("Image height in pixels")),
		},
		sourceOptions(),
		customOptions(),
		queryOptions(),
	)
}

// RenderChartHandler handles the render_chart tool.
func (t *ChartTools) RenderChartHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := t.render
	if v := request.GetString("format", ""); v != "" {
		opts.Format = render.Format(v)
	}
	if opts.Format == "" {
		opts.Format = render.PNG
	}
	if v := int(request.GetFloat("width", 0)); v > 0 {
		opts.Width = v
	}
	if v := int(request.GetFloat("height", 0)); v > 0 {
		opts.Height = v
	}

	var (
		src   *source
		f     *feed.Feed
		image bytes.Buffer
	)
	err := t.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		if src, f, err = t.buildFeed(ctx, request); err != nil {
			return err
		}
		return render.Render(&image, f, opts)
	})
	if err != nil {
		return t.toolError("render_chart", err)
	}

	chartFile := "chart." + string(opts.Format)
	summary := fmt.Sprintf("Rendered %s chart of %d observations (%d bytes)", f.Chart.Kind, len(f.Observations), image.Len())

	meta, err := t.saveRender(src, f, chartFile, image.Bytes())
	switch {
	case err == nil:
		summary += fmt.Sprintf("\nOutput: %s (files: %s, data.csv, feed.json)", meta.ID, chartFile)
	case errors.Is(err, output.ErrNotConfigured):
	default:
		t.logger.Warn("Failed to store render", zap.Error(err))
		summary += fmt.Sprintf("\nWarning: output not stored: %v", err)
	}

	if opts.Format == render.SVG {
		return mcp.NewToolResultText(summary + "\n\n" + image.String()), nil
	}
	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(image.Bytes()), opts.Format.ContentType()), nil
}

func (t *ChartTools) saveRender(src *source, f *feed.Feed, chartFile string, image []byte) (output.Metadata, error) {
	if t.outputs == nil {
		return output.Metadata{}, output.ErrNotConfigured
	}
	sources := make([]string, len(src.names))
	for i, n := range src.names {
		sources[i] = filepath.Base(n)
	}
	meta, err := t.outputs.Create(output.Metadata{
		Preset: src.preset.Name,
		Source: strings.Join(sources, ", "),
		Kind:   string(f.Chart.Kind),
		Title:  f.Chart.Title,
	})
	if err != nil {
		return output.Metadata{}, err
	}

	var data bytes.Buffer
	if err := reshape.WriteCSV(&data, f.Observations); err != nil {
		return meta, err
	}
	feedJSON, err := json.MarshalIndent(summarize(f), "", "  ")
	if err != nil {
		return meta, err
	}
	for name, content := range map[string][]byte{
		chartFile:   image,
		"data.csv":  data.Bytes(),
		"feed.json": feedJSON,
	} {
		if err := t.outputs.WriteFile(meta.ID, name, content); err != nil {
			return meta, err
		}
	}
	return meta, nil
}

// AgeDistributionTool returns the age_distribution tool definition.
func AgeDistributionTool() mcp.Tool {
	return mcp.NewTool("age_distribution",
		mcp.WithDescription("Extract per-age population counts of one region from a resident population export (columns like '2025년06월_남_0세')."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path or upload:// reference of the population export"),
		),
		mcp.WithString("region_contains",
			mcp.Required(),
			mcp.Description("Text the region cell must contain, e.g. '서울특별시'"),
		),
		mcp.WithString("prefix",
			mcp.Required(),
			mcp.Description("Age column prefix, e.g. '2025년06월_남_'"),
		),
		mcp.WithString("region_column",
			mcp.Description("Region column (default: 행정구역)"),
		),
		mcp.WithString("group",
			mcp.Description("Label for the counts, e.g. '남'"),
		),
		mcp.WithString("encoding",
			mcp.Description("Source encoding (default: UTF-8 with a cp949 fallback)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default: json)"),
			mcp.Enum("json", "csv"),
		),
	)
}

// AgeDistributionHandler handles the age_distribution tool.
func (t *ChartTools) AgeDistributionHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'file': %v", err)), nil
	}
	region, err := request.RequireString("region_contains")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'region_contains': %v", err)), nil
	}
	prefix, err := request.RequireString("prefix")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameter 'prefix': %v", err)), nil
	}
	opts := reshape.AgeOptions{
		RegionColumn:   request.GetString("region_column", "행정구역"),
		RegionContains: region,
		Prefix:         prefix,
		Group:          request.GetString("group", ""),
	}

	var counts []reshape.AgeCount
	err = t.pool.Do(ctx, func(ctx context.Context) error {
		path, err := t.resolveFilePath(file)
		if err != nil {
			return err
		}
		tbl, err := table.LoadFile(path, table.Options{Encoding: request.GetString("encoding", "")})
		if err != nil {
			return err
		}
		counts, err = reshape.AgeDistribution(tbl, opts)
		return err
	})
	if err != nil {
		return t.toolError("age_distribution", err)
	}

	if request.GetString("format", "json") == "csv" {
		data, err := csvutil.Marshal(counts)
		if err != nil {
			return t.toolError("age_distribution", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	var total float64
	for _, c := range counts {
		total += c.Count
	}
	return jsonResult(map[string]interface{}{
		"region": region,
		"group":  opts.Group,
		"total":  total,
		"counts": counts,
	})
}

// ListPresetsTool returns the list_presets tool definition.
func ListPresetsTool() mcp.Tool {
	return mcp.NewTool("list_presets",
		mcp.WithDescription("List the presets that describe known export formats (energy, crops, rice, production and any from the presets file)."),
		mcp.WithString("name",
			mcp.Description("Show the full definition of one preset"),
		),
	)
}

// ListPresetsHandler handles the list_presets tool.
func (t *ChartTools) ListPresetsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if name := request.GetString("name", ""); name != "" {
		p, err := t.presets.Get(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(p)
	}

	list := t.presets.List()
	if len(list) == 0 {
		return mcp.NewToolResultText("No presets registered."), nil
	}
	text := fmt.Sprintf("Found %d preset(s):\n\n", len(list))
	for _, p := range list {
		layout := p.Layout
		if layout == "" {
			layout = preset.Wide
		}
		text += fmt.Sprintf("%s (%s, %s chart)\n", p.Name, layout, p.Chart.WithDefaults().Kind)
		if p.Description != "" {
			text += fmt.Sprintf("  %s\n", p.Description)
		}
	}
	return mcp.NewToolResultText(text), nil
}

// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagacient/cute-charts-mcp-server/bookmark"
	"github.com/sagacient/cute-charts-mcp-server/columns"
	"github.com/sagacient/cute-charts-mcp-server/feed"
	"github.com/sagacient/cute-charts-mcp-server/pipeline"
	"github.com/sagacient/cute-charts-mcp-server/preset"
	"github.com/sagacient/cute-charts-mcp-server/render"
	"github.com/sagacient/cute-charts-mcp-server/reshape"
)

// tableFlags are shared by the offline table commands.
type tableFlags struct {
	preset     string
	encoding   string
	skipRows   int
	headerRows int

	entity        string
	delimiter     string
	defaultMetric string
	yearPrefix    string
	exclude       []string
	dashMissing   bool
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.preset, "preset", "p", "", "Preset name (see 'presets')")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Source encoding (default: UTF-8 with a cp949 fallback)")
	cmd.Flags().IntVar(&f.skipRows, "skip-rows", -1, "Metadata rows above the header")
	cmd.Flags().IntVar(&f.headerRows, "header-rows", 0, "Header rows (1 or 2)")

	cmd.Flags().StringVar(&f.entity, "entity", "", "Entity column when no preset is given")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "Separator between metric and year in column names")
	cmd.Flags().StringVar(&f.defaultMetric, "default-metric", "", "Metric for year-only columns")
	cmd.Flags().StringVar(&f.yearPrefix, "year-prefix", "", "Only use year columns starting with this text")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Entities to drop")
	cmd.Flags().BoolVar(&f.dashMissing, "dash-missing", false, "Treat '-' as missing instead of zero (overrides the preset)")
}

// resolve returns the preset to run, from the registry or from the flags.
func (f *tableFlags) resolve(a *app, cmd *cobra.Command) (*preset.Preset, error) {
	var p *preset.Preset
	if f.preset != "" {
		var err error
		if p, err = a.presets.Get(f.preset); err != nil {
			return nil, err
		}
	} else {
		if f.entity == "" {
			return nil, errors.New("either --preset or --entity is required")
		}
		p = &preset.Preset{
			Name:          "custom",
			Layout:        preset.Wide,
			Roles:         []columns.Role{{Name: preset.RoleEntity, Candidates: []string{f.entity}, Required: true}},
			Delimiter:     f.delimiter,
			DefaultMetric: f.defaultMetric,
			YearPrefix:    f.yearPrefix,
			Exclude:       f.exclude,
		}
	}

	if f.encoding != "" {
		p.Table.Encoding = f.encoding
	}
	if f.skipRows >= 0 {
		p.Table.SkipRows = f.skipRows
	}
	if f.headerRows > 0 {
		p.Table.HeaderRows = f.headerRows
	}
	if cmd.Flags().Changed("dash-missing") {
		p.Numeric.SentinelMissing = f.dashMissing
	}
	return p, p.Validate()
}

// reshapeFiles runs the preset over every file and concatenates the
// observations.
func (a *app) reshapeFiles(cmd *cobra.Command, files []string, p *preset.Preset) ([]reshape.Observation, error) {
	tables, err := pipeline.LoadAll(cmd.Context(), files, p.Table, a.cfg.Workers.LoadConcurrency)
	if err != nil {
		return nil, err
	}
	var obs []reshape.Observation
	for i, t := range tables {
		res, err := pipeline.Reshape(t, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", files[i], err)
		}
		obs = append(obs, res.Observations...)
	}
	return obs, nil
}

func newInspectCmd(a *app) *cobra.Command {
	var flags tableFlags
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show the encoding, header and first rows of exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &preset.Preset{}
			if flags.preset != "" {
				var err error
				if p, err = a.presets.Get(flags.preset); err != nil {
					return err
				}
			}
			if flags.encoding != "" {
				p.Table.Encoding = flags.encoding
			}
			if flags.skipRows >= 0 {
				p.Table.SkipRows = flags.skipRows
			}
			if flags.headerRows > 0 {
				p.Table.HeaderRows = flags.headerRows
			}

			tables, err := pipeline.LoadAll(cmd.Context(), args, p.Table, a.cfg.Workers.LoadConcurrency)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, t := range tables {
				fmt.Fprintf(out, "%s (%s, %d rows)\n", args[i], t.Encoding, len(t.Rows))
				for j, h := range t.Header {
					fmt.Fprintf(out, "  [%d] %s\n", j, h)
				}
				for _, row := range t.Preview(rows) {
					fmt.Fprintf(out, "  | %s\n", strings.Join(row, " | "))
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "Rows to preview")
	return cmd
}

func newReshapeCmd(a *app) *cobra.Command {
	var flags tableFlags
	var out string

	cmd := &cobra.Command{
		Use:   "reshape FILE...",
		Short: "Convert wide exports to a long entity,year,metric,value CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.resolve(a, cmd)
			if err != nil {
				return err
			}
			obs, err := a.reshapeFiles(cmd, args, p)
			if err != nil {
				return err
			}

			w, closeFn, err := writeOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := reshape.WriteCSV(w, obs); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output CSV file")
	return cmd
}

func newChartCmd(a *app) *cobra.Command {
	var (
		flags  tableFlags
		query  feed.Query
		chart  feed.Chart
		kind   string
		format string
		out    string
		width  int
		height int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "chart FILE...",
		Short: "Render a filtered chart of exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.resolve(a, cmd)
			if err != nil {
				return err
			}
			obs, err := a.reshapeFiles(cmd, args, p)
			if err != nil {
				return err
			}

			chart.Kind = feed.Kind(kind)
			f, err := feed.Build(obs, query, pipeline.MergeChart(p.Chart, chart))
			if err != nil {
				return err
			}

			opts := a.renderOptions()
			if format != "" {
				if opts.Format, err = render.ParseFormat(format); err != nil {
					return err
				}
			}
			if width > 0 {
				opts.Width = width
			}
			if height > 0 {
				opts.Height = height
			}
			if out == "" {
				out = "chart." + string(opts.Format)
				if asJSON {
					out = "feed.json"
				}
			}

			w, closeFn, err := writeOutput(cmd, out)
			if err != nil {
				return err
			}
			if asJSON {
				err = writeFeedJSON(w, f)
			} else {
				err = render.Render(w, f, opts)
			}
			if err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&query.Entities, "entities", nil, "Entities to keep")
	cmd.Flags().StringSliceVar(&query.Metrics, "metrics", nil, "Metrics to keep")
	cmd.Flags().IntVar(&query.YearFrom, "from", 0, "First year")
	cmd.Flags().IntVar(&query.YearTo, "to", 0, "Last year")
	cmd.Flags().StringVar(&kind, "kind", "", "Chart kind: bar, line or pie")
	cmd.Flags().StringVar(&chart.X, "x", "", "X field: year, entity or metric")
	cmd.Flags().StringVar(&chart.Color, "color", "", "Series field: entity, year or metric")
	cmd.Flags().StringVar(&chart.Title, "title", "", "Chart title")
	cmd.Flags().StringVar(&chart.YLabel, "y-label", "", "Y axis label")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Image format: png or svg")
	cmd.Flags().IntVar(&width, "width", 0, "Image width")
	cmd.Flags().IntVar(&height, "height", 0, "Image height")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the chart feed as JSON instead of an image")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file ('-' for stdout, default chart.<format>)")
	return cmd
}

func writeFeedJSON(w io.Writer, f *feed.Feed) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"chart":  f.Chart,
		"points": f.Points(),
	})
}

func newBookmarkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage saved places",
	}

	var address string
	var lat, lon float64
	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Save a place by coordinates or by geocoding its address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geocoder, err := a.geocoder()
			if err != nil {
				return err
			}
			book, closeBook, err := a.openBook(cmd.Context(), geocoder)
			if err != nil {
				return err
			}
			defer closeBook()

			req := bookmark.AddRequest{Name: args[0], Address: address}
			if cmd.Flags().Changed("lat") {
				req.Lat = &lat
			}
			if cmd.Flags().Changed("lon") {
				req.Lon = &lon
			}
			bm, err := book.Add(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.6f\t%.6f\n", bm.Name, bm.Lat, bm.Lon)
			return nil
		},
	}
	addCmd.Flags().StringVar(&address, "address", "", "Address to geocode")
	addCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	addCmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")

	var geoJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, closeBook, err := a.openBook(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeBook()

			list, err := book.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if geoJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(bookmark.GeoJSON(list))
			}
			for _, b := range list {
				fmt.Fprintf(out, "%s\t%.6f\t%.6f\t%s\n", b.Name, b.Lat, b.Lon, b.Address)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&geoJSON, "geojson", false, "Print a GeoJSON FeatureCollection")

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

func newGeocodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode ADDRESS",
		Short: "Look up the coordinates of an address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geocoder, err := a.geocoder()
			if err != nil {
				return err
			}
			p, err := geocoder.Geocode(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f\t%.6f\n", p.Lat, p.Lon)
			return nil
		},
	}
}

func newPresetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets [NAME]",
		Short: "List presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				p, err := a.presets.Get(args[0])
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(preset.File{Presets: []*preset.Preset{p}}); err != nil {
					return err
				}
				return enc.Close()
			}
			for _, p := range a.presets.List() {
				fmt.Fprintf(out, "%-12s %s\n", p.Name, p.Description)
			}
			return nil
		},
	}
}

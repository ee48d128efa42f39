// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package render draws feeds as PNG or SVG charts.
//
// This is the only place where observations are grouped and summed: every
// (x, color) pair becomes one value, missing values are left out.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/sagacient/cute-charts-mcp-server/feed"
)

// ErrNothingToDraw is returned when every selected value is missing, or for
// pie charts when no value is positive.
var ErrNothingToDraw = errors.New("nothing to draw: all selected values are missing")

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat validates a format name; empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return PNG, nil
	case PNG, SVG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (expected png or svg)", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options controls image output.
type Options struct {
	Format Format
	Width  int
	Height int

	// Font replaces the built-in font, which has no Hangul glyphs.
	Font *truetype.Font
}

const (
	defaultWidth  = 1024
	defaultHeight = 600
)

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return f, nil
}

// Render writes f to w.
func Render(w io.Writer, f *feed.Feed, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return err
	}
	provider := chart.PNG
	if format == SVG {
		provider = chart.SVG
	}

	g := Group(f)
	if len(g.X) == 0 {
		return ErrNothingToDraw
	}

	switch f.Chart.Kind {
	case feed.Line:
		return renderLine(w, provider, f.Chart, g, opts)
	case feed.Pie:
		return renderPie(w, provider, f.Chart, g, opts)
	default:
		return renderBar(w, provider, f.Chart, g, opts)
	}
}

// Grouped is a feed summed by x and series.
type Grouped struct {
	X      []string
	Series []string
	// Sums[series][x] is present only when at least one value was valid.
	Sums map[string]map[string]float64
}

// Total sums every series at x.
func (g Grouped) Total(x string) float64 {
	var t float64
	for _, s := range g.Series {
		t += g.Sums[s][x]
	}
	return t
}

// Group sums the feed's valid values by (x, color). X values are kept in
// first-seen order, or numerically when the x field is the year.
func Group(f *feed.Feed) Grouped {
	g := Grouped{Sums: make(map[string]map[string]float64)}
	seenX := make(map[string]struct{})

	for _, p := range f.Points() {
		if !p.Y.Valid {
			continue
		}
		if _, ok := seenX[p.X]; !ok {
			seenX[p.X] = struct{}{}
			g.X = append(g.X, p.X)
		}
		sums, ok := g.Sums[p.Color]
		if !ok {
			sums = make(map[string]float64)
			g.Sums[p.Color] = sums
			g.Series = append(g.Series, p.Color)
		}
		sums[p.X] += p.Y.Float
	}

	if f.Chart.X == feed.FieldYear {
		sort.SliceStable(g.X, func(i, j int) bool {
			a, _ := strconv.Atoi(g.X[i])
			b, _ := strconv.Atoi(g.X[j])
			return a < b
		})
	}
	return g
}

func yLabel(c feed.Chart) string {
	if c.YLabel != "" {
		return c.YLabel
	}
	return c.Y
}

func renderBar(w io.Writer, p chart.RendererProvider, c feed.Chart, g Grouped, opts Options) error {
	if len(g.Series) > 1 {
		bars := make([]chart.StackedBar, 0, len(g.X))
		for _, x := range g.X {
			bar := chart.StackedBar{Name: x, Width: barWidth(opts.Width, len(g.X))}
			for _, s := range g.Series {
				if v, ok := g.Sums[s][x]; ok && v > 0 {
					bar.Values = append(bar.Values, chart.Value{Label: s, Value: v})
				}
			}
			if len(bar.Values) > 0 {
				bars = append(bars, bar)
			}
		}
		if len(bars) == 0 {
			return ErrNothingToDraw
		}
		sbc := chart.StackedBarChart{
			Title:  c.Title,
			Width:  opts.Width,
			Height: opts.Height,
			Font:   opts.Font,
			Bars:   bars,
		}
		return sbc.Render(p, w)
	}

	s := g.Series[0]
	values := make([]chart.Value, 0, len(g.X))
	lo, hi := 0.0, 0.0
	for _, x := range g.X {
		v := g.Sums[s][x]
		values = append(values, chart.Value{Label: x, Value: v})
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	bc := chart.BarChart{
		Title:    c.Title,
		Width:    opts.Width,
		Height:   opts.Height,
		Font:     opts.Font,
		BarWidth: barWidth(opts.Width, len(values)),
		Bars:     values,
		YAxis: chart.YAxis{
			Name:  yLabel(c),
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
	}
	return bc.Render(p, w)
}

// barWidth leaves a bar-wide gap between bars.
func barWidth(width, n int) int {
	w := width / (2*n + 2)
	if w > 50 {
		return 50
	}
	if w < 4 {
		return 4
	}
	return w
}

func renderLine(w io.Writer, p chart.RendererProvider, c feed.Chart, g Grouped, opts Options) error {
	ticks := make([]chart.Tick, len(g.X))
	for i, x := range g.X {
		ticks[i] = chart.Tick{Value: float64(i), Label: x}
	}

	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range g.Series {
		var xs, ys []float64
		for i, x := range g.X {
			v, ok := g.Sums[s][x]
			if !ok {
				continue
			}
			xs = append(xs, float64(i))
			ys = append(ys, v)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		// go-chart needs two points to draw a line.
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{Name: s, XValues: xs, YValues: ys})
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}

	ch := chart.Chart{
		Title:  c.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Font:   opts.Font,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  c.X,
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(g.X)) - 0.5},
		},
		YAxis: chart.YAxis{
			Name:  yLabel(c),
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	if len(series) > 1 || series[0].GetName() != "" {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(p, w)
}

func renderPie(w io.Writer, p chart.RendererProvider, c feed.Chart, g Grouped, opts Options) error {
	var values []chart.Value
	for _, x := range g.X {
		if v := g.Total(x); v > 0 {
			values = append(values, chart.Value{Label: x, Value: v})
		}
	}
	if len(values) == 0 {
		return ErrNothingToDraw
	}

	pc := chart.PieChart{
		Title:  c.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Font:   opts.Font,
		Values: values,
	}
	return pc.Render(p, w)
}

// Package plotting collects named figures produced by a scenario and either
// renders them to a terminal or saves them as SVG files.
package plotting

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rs1sim/internal/logging"
	"github.com/san-kum/rs1sim/internal/viz"
)

var (
	ErrUnknownFigure = errors.New("plotting: unknown figure")
	ErrEmptyFigure   = errors.New("plotting: figure has no data")
)

// Series is one labelled curve. For time-series figures X holds the shared
// abscissa; for XY figures each point is plotted as given.
type Series struct {
	Label string
	Color string
	X, Y  []float64
}

// Figure is a named plot.
type Figure struct {
	Name   string
	Title  string
	XLabel string
	YLabel string
	Series []Series
	// XY figures plot Y against X on a shared window (orbit tracks);
	// otherwise all series are drawn against a common time axis.
	XY bool
	// EqualAxes keeps the aspect ratio 1:1 for XY figures.
	EqualAxes bool
}

// Add appends a series. xs and ys must have the same length.
func (f *Figure) Add(label, color string, xs, ys []float64) {
	f.Series = append(f.Series, Series{Label: label, Color: color, X: xs, Y: ys})
}

func (f *Figure) empty() bool {
	for _, s := range f.Series {
		if len(s.Y) > 0 {
			return false
		}
	}
	return true
}

// ResultsSink is the plotting collaborator of a scenario. Figures
// accumulate in memory until Show or SaveAll.
type ResultsSink struct {
	Dir    string
	Prefix string
	Out    io.Writer
	Width  int
	Height int

	figs   map[string]*Figure
	order  []string
	logger *slog.Logger
}

// NewSink returns a sink saving under dir with file names prefixed by
// prefix and rendering to out.
func NewSink(dir, prefix string, out io.Writer) *ResultsSink {
	if out == nil {
		out = os.Stdout
	}
	return &ResultsSink{
		Dir:    dir,
		Prefix: prefix,
		Out:    out,
		Width:  72,
		Height: 14,
		figs:   make(map[string]*Figure),
		logger: logging.Discard(),
	}
}

func (s *ResultsSink) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// ClearAll drops every figure.
func (s *ResultsSink) ClearAll() {
	s.figs = make(map[string]*Figure)
	s.order = nil
}

// Figure returns the named figure, creating it on first use.
func (s *ResultsSink) Figure(name string) *Figure {
	if f, ok := s.figs[name]; ok {
		return f
	}
	f := &Figure{Name: name, Title: name}
	s.figs[name] = f
	s.order = append(s.order, name)
	return f
}

// Names lists figures in creation order.
func (s *ResultsSink) Names() []string {
	return append([]string(nil), s.order...)
}

// Show renders every figure to the sink's writer.
func (s *ResultsSink) Show() error {
	for _, name := range s.order {
		if _, err := io.WriteString(s.Out, s.Render(s.figs[name])+"\n"); err != nil {
			return fmt.Errorf("plotting: show %s: %w", name, err)
		}
	}
	return nil
}

// Render draws one figure as terminal text.
func (s *ResultsSink) Render(f *Figure) string {
	if f.empty() {
		return f.Title + ": (no data)\n"
	}
	if f.XY {
		return s.renderXY(f)
	}
	data := make([][]float64, 0, len(f.Series))
	legends := make([]string, 0, len(f.Series))
	colors := make([]asciigraph.AnsiColor, 0, len(f.Series))
	for i, sr := range f.Series {
		if len(sr.Y) == 0 {
			continue
		}
		data = append(data, sr.Y)
		legends = append(legends, sr.Label)
		colors = append(colors, termColors[i%len(termColors)])
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(s.Height),
		asciigraph.Width(s.Width),
		asciigraph.Precision(3),
		asciigraph.Caption(caption(f)),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

func (s *ResultsSink) renderXY(f *Figure) string {
	curves := make([][][2]float64, 0, len(f.Series))
	for _, sr := range f.Series {
		curves = append(curves, zip(sr.X, sr.Y))
	}
	c := viz.NewCanvas(s.Width/2+s.Width/4, s.Height)
	b := viz.FitBounds(f.EqualAxes, curves...)
	for _, pts := range curves {
		c.Polyline(b, pts)
	}
	var sb strings.Builder
	sb.WriteString(c.String())
	sb.WriteString(caption(f))
	sb.WriteByte('\n')
	return sb.String()
}

// SaveAll writes the named figures as SVG files and returns name to path.
// An unknown name is an error.
func (s *ResultsSink) SaveAll(names []string) (map[string]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("plotting: create output dir: %w", err)
	}
	paths := make(map[string]string, len(names))
	for _, name := range names {
		f, ok := s.figs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFigure, name)
		}
		if f.empty() {
			return nil, fmt.Errorf("%w: %s", ErrEmptyFigure, name)
		}
		path := filepath.Join(s.Dir, s.fileName(name))
		if err := os.WriteFile(path, []byte(FigureToSVG(f, 800, 600)), 0o644); err != nil {
			return nil, fmt.Errorf("plotting: save %s: %w", name, err)
		}
		s.logger.Debug("figure saved", "figure", name, "path", path)
		paths[name] = path
	}
	return paths, nil
}

func (s *ResultsSink) fileName(name string) string {
	if s.Prefix == "" {
		return name + ".svg"
	}
	return s.Prefix + "_" + name + ".svg"
}

var termColors = []asciigraph.AnsiColor{
	asciigraph.Blue,
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Goldenrod,
}

func caption(f *Figure) string {
	if f.XLabel == "" && f.YLabel == "" {
		return f.Title
	}
	return fmt.Sprintf("%s  [%s vs %s]", f.Title, f.YLabel, f.XLabel)
}

func zip(xs, ys []float64) [][2]float64 {
	n := min(len(xs), len(ys))
	pts := make([][2]float64, n)
	for i := range n {
		pts[i] = [2]float64{xs[i], ys[i]}
	}
	return pts
}

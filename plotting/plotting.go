// Package plotting writes the PNG figures produced by the error-analysis
// experiments.
package plotting

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hammal/closure"
)

// Options controls where and how a figure is drawn.
type Options struct {
	Folder string
	// Log switches the y axis (Plot1D) or the color scale (Scatter2D) to
	// logarithmic. Non-positive values are dropped.
	Log    bool
	XLabel string
	YLabel string
	// ZMax caps the color scale of Scatter2D when positive.
	ZMax float64
	// Size is the edge length of the square figure; zero means 4 inch.
	Size vg.Length
}

// DefaultOptions mirrors the defaults of the experiment scripts.
func DefaultOptions() Options {
	return Options{Folder: "figures", Log: true}
}

func (o Options) size() vg.Length {
	if o.Size <= 0 {
		return 4 * vg.Inch
	}
	return o.Size
}

func (o Options) path(name string) (string, error) {
	folder := o.Folder
	if folder == "" {
		folder = "."
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating figure folder %s", folder)
	}
	return filepath.Join(folder, name+".png"), nil
}

// Plot1D draws every ys[i] against its abscissa as a line and saves the
// figure to <Folder>/<name>.png. A single entry in xs is shared by all
// curves, otherwise xs and ys must pair up.
func Plot1D(xs, ys [][]float64, labels []string, name string, opts Options) (string, error) {
	if len(ys) == 0 {
		return "", closure.Configurationf("nothing to plot for %s", name)
	}
	if len(xs) != 1 && len(xs) != len(ys) {
		return "", closure.Configurationf("%d abscissas for %d curves", len(xs), len(ys))
	}

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	if opts.Log {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	lines := make([]interface{}, 0, 2*len(ys))
	for index, y := range ys {
		x := xs[0]
		if len(xs) > 1 {
			x = xs[index]
		}
		pts, err := pointsOf(x, y, opts.Log)
		if err != nil {
			return "", errors.Wrapf(err, "curve %d of %s", index, name)
		}
		label := ""
		if index < len(labels) {
			label = labels[index]
		}
		if label != "" {
			lines = append(lines, label)
		}
		lines = append(lines, pts)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return "", errors.Wrapf(err, "adding lines to %s", name)
	}

	file, err := opts.path(name)
	if err != nil {
		return "", err
	}
	if err := p.Save(opts.size(), opts.size(), file); err != nil {
		return "", errors.Wrapf(err, "saving %s", file)
	}
	return file, nil
}

// pointsOf pairs x and y, dropping non-finite points and, on a log axis,
// non-positive ones.
func pointsOf(x, y []float64, log bool) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, closure.Configurationf("%d abscissas for %d values", len(x), len(y))
	}
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) || (log && y[i] <= 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	if len(pts) == 0 {
		return nil, closure.Configurationf("no drawable points")
	}
	return pts, nil
}

// Scatter2D draws the points (x[i], y[i]) colored by z[i] and saves the
// figure to <Folder>/<name>.png.
func Scatter2D(x, y, z []float64, name string, opts Options) (string, error) {
	if len(x) != len(y) || len(x) != len(z) {
		return "", closure.Configurationf("scatter needs equal lengths, got %d, %d, %d", len(x), len(y), len(z))
	}

	pts := make(plotter.XYs, 0, len(x))
	values := make([]float64, 0, len(x))
	for i := range x {
		v := z[i]
		if opts.Log {
			if v <= 0 {
				continue
			}
			v = math.Log10(v)
		}
		if !finite(x[i]) || !finite(y[i]) || !finite(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
		values = append(values, v)
	}
	if len(pts) == 0 {
		return "", closure.Configurationf("no drawable points for %s", name)
	}

	colors := colorMap(values, opts)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", errors.Wrapf(err, "scatter %s", name)
	}
	radius := vg.Points(2)
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c, err := colors.At(math.Max(colors.Min(), math.Min(values[i], colors.Max())))
		if err != nil {
			c = color.Black
		}
		return draw.GlyphStyle{Color: c, Radius: radius, Shape: draw.CircleGlyph{}}
	}

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(plotter.NewGrid(), scatter)

	file, err := opts.path(name)
	if err != nil {
		return "", err
	}
	if err := p.Save(opts.size(), opts.size(), file); err != nil {
		return "", errors.Wrapf(err, "saving %s", file)
	}
	return file, nil
}

func colorMap(values []float64, opts Options) palette.ColorMap {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if opts.ZMax > 0 {
		hi = opts.ZMax
		if opts.Log {
			hi = math.Log10(opts.ZMax)
		}
		lo = math.Min(lo, hi)
	}
	if hi == lo {
		hi = lo + 1
	}
	colors := moreland.ExtendedBlackBody()
	colors.SetMin(lo)
	colors.SetMax(hi)
	return colors
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

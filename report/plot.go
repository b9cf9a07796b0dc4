// Package report summarises generated datasets: class distribution and
// sample location plots, and a YAML manifest of a split.
package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/landcover/datasets"
)

// File names written by the plotting functions.
const (
	ClassDistributionFile = "class_distribution.png"
	LocationsFile         = "locations.png"
)

// palette cycles through distinguishable colours, one per class.
var palette = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 220},
	{R: 200, G: 30, B: 30, A: 220},
	{R: 40, G: 150, B: 40, A: 220},
	{R: 230, G: 150, B: 20, A: 220},
	{R: 120, G: 60, B: 170, A: 220},
	{R: 120, G: 120, B: 120, A: 180},
}

// ClassCounts counts rows per class.
func ClassCounts(rows []datasets.Row) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Class]++
	}
	return counts
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PlotClassDistribution writes a bar chart of counts into outDir and
// returns the file path.
func PlotClassDistribution(outDir, title string, counts map[string]int) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("no classes to plot")
	}
	keys := sortedKeys(counts)
	values := make(plotter.Values, len(keys))
	for i, k := range keys {
		values[i] = float64(counts[k])
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "class"
	p.Y.Label.Text = "samples"

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return "", err
	}
	bars.Color = palette[0]
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Add(plotter.NewGrid())
	p.NominalX(keys...)

	if err := ensureDir(outDir); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, ClassDistributionFile)
	if err := p.Save(8*vg.Inch, 5*vg.Inch, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// PlotLocations writes a scatter of sample locations (longitude on X,
// latitude on Y) coloured by class into outDir and returns the file path.
func PlotLocations(outDir, title string, samples []datasets.Sample) (string, error) {
	byClass := make(map[string]plotter.XYs)
	var all plotter.XYs
	for _, s := range samples {
		pt := plotter.XY{X: s.Lon, Y: s.Lat}
		byClass[s.Class] = append(byClass[s.Class], pt)
		all = append(all, pt)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"

	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	for i, c := range classes {
		sc, err := plotter.NewScatter(byClass[c])
		if err != nil {
			return "", err
		}
		sc.GlyphStyle.Color = palette[i%len(palette)]
		sc.GlyphStyle.Radius = vg.Points(1.8)
		p.Add(sc)
		p.Legend.Add(c, sc)
	}

	p.Add(plotter.NewGrid())
	xmin, xmax, ymin, ymax := autoRange(all)
	p.X.Min = xmin
	p.X.Max = xmax
	p.Y.Min = ymin
	p.Y.Max = ymax

	if err := ensureDir(outDir); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, LocationsFile)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// autoRange computes padded min/max for X and Y for a set of points.
func autoRange(xs plotter.XYs) (xmin, xmax, ymin, ymax float64) {
	if len(xs) == 0 {
		return -1, 1, -1, 1
	}
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, p := range xs {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
		ymin = math.Min(ymin, p.Y)
		ymax = math.Max(ymax, p.Y)
	}
	padx := (xmax - xmin) * 0.06
	pady := (ymax - ymin) * 0.06
	if padx == 0 {
		padx = 1.0
	}
	if pady == 0 {
		pady = 1.0
	}
	return xmin - padx, xmax + padx, ymin - pady, ymax + pady
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

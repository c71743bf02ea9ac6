package figure

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"rethink/errors"
)

// Density renders a kernel density estimate of xs and returns the file path
func (w *Workshop) Density(name, title, xlabel string, xs []float64) (string, error) {
	if len(xs) < 2 {
		return "", errors.Newf("density figure needs at least 2 values, got %d", len(xs))
	}

	grid, heights := kde(xs, 200)

	pts := make(plotter.XYs, len(grid))
	for i := range grid {
		pts[i].X = grid[i]
		pts[i].Y = heights[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "density"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", errors.Wrap(err, "density line")
	}
	line.Color = lineColor
	p.Add(line)

	path := w.path(name)
	if err := p.Save(w.width, w.height, path); err != nil {
		return "", errors.Wrapf(err, "save %s", path)
	}
	return path, nil
}

// kde evaluates a Gaussian kernel density estimate on an evenly spaced grid,
// with Silverman's rule-of-thumb bandwidth.
func kde(xs []float64, points int) (grid, heights []float64) {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	_, sd := stat.MeanStdDev(sorted, nil)
	iqr := stat.Quantile(0.75, stat.Empirical, sorted, nil) - stat.Quantile(0.25, stat.Empirical, sorted, nil)
	spread := sd
	if iqr > 0 && iqr/1.34 < spread {
		spread = iqr / 1.34
	}
	bw := 0.9 * spread * math.Pow(float64(len(xs)), -0.2)
	if bw <= 0 {
		bw = 1e-3
	}

	lo := sorted[0] - 3*bw
	hi := sorted[len(sorted)-1] + 3*bw
	step := (hi - lo) / float64(points-1)

	grid = make([]float64, points)
	heights = make([]float64, points)
	norm := 1 / (bw * math.Sqrt(2*math.Pi) * float64(len(xs)))
	for i := range grid {
		x := lo + float64(i)*step
		grid[i] = x
		acc := 0.0
		for _, xi := range xs {
			z := (x - xi) / bw
			acc += math.Exp(-0.5 * z * z)
		}
		heights[i] = acc * norm
	}
	return grid, heights
}

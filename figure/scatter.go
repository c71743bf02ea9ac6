package figure

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"rethink/errors"
)

// Band is a posterior regression band: the mean line and an interval,
// evaluated along X. X must be sorted ascending.
type Band struct {
	X     []float64
	Mean  []float64
	Lower []float64
	Upper []float64
}

// Scatter renders observed points, optionally with a posterior band behind
// them, and returns the file path.
func (w *Workshop) Scatter(name, title, xlabel, ylabel string, xs, ys []float64, band *Band) (string, error) {
	if len(xs) != len(ys) {
		return "", errors.Newf("scatter needs matching lengths, got %d and %d", len(xs), len(ys))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	if band != nil {
		if len(band.X) != len(band.Mean) || len(band.X) != len(band.Lower) || len(band.X) != len(band.Upper) {
			return "", errors.Newf("band slices must share a length")
		}

		// Interval polygon: lower bound left to right, upper bound back
		poly := make(plotter.XYs, 0, 2*len(band.X))
		for i := range band.X {
			poly = append(poly, plotter.XY{X: band.X[i], Y: band.Lower[i]})
		}
		for i := len(band.X) - 1; i >= 0; i-- {
			poly = append(poly, plotter.XY{X: band.X[i], Y: band.Upper[i]})
		}
		shade, err := plotter.NewPolygon(poly)
		if err != nil {
			return "", errors.Wrap(err, "band polygon")
		}
		shade.Color = bandColor
		shade.LineStyle.Width = 0
		p.Add(shade)

		meanPts := make(plotter.XYs, len(band.X))
		for i := range band.X {
			meanPts[i].X = band.X[i]
			meanPts[i].Y = band.Mean[i]
		}
		meanLine, err := plotter.NewLine(meanPts)
		if err != nil {
			return "", errors.Wrap(err, "band mean line")
		}
		meanLine.Color = accentColor
		p.Add(meanLine)
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", errors.Wrap(err, "scatter points")
	}
	scatter.Color = lineColor
	p.Add(scatter)

	path := w.path(name)
	if err := p.Save(w.width, w.height, path); err != nil {
		return "", errors.Wrapf(err, "save %s", path)
	}
	return path, nil
}

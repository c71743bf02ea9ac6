package figure

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"rethink/errors"
	"rethink/posterior"
)

// Trace renders one parameter's draws per chain against iteration index.
// Healthy chains overlap into a single fuzzy band; stuck or drifting chains
// are visible immediately.
func (w *Workshop) Trace(name, title string, draws *posterior.Draws, param string) (string, error) {
	if draws.Chains() < 1 {
		return "", errors.Newf("trace figure needs at least one chain")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = param

	for c := 0; c < draws.Chains(); c++ {
		xs, err := draws.ChainColumn(param, c)
		if err != nil {
			return "", err
		}
		pts := make(plotter.XYs, len(xs))
		for i, x := range xs {
			pts[i].X = float64(i)
			pts[i].Y = x
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", errors.Wrapf(err, "trace line for chain %d", c)
		}
		line.Color = chainColors[c%len(chainColors)]
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("chain %d", c+1), line)
	}
	p.Legend.Top = true

	path := w.path(name)
	if err := p.Save(w.width, w.height, path); err != nil {
		return "", errors.Wrapf(err, "save %s", path)
	}
	return path, nil
}

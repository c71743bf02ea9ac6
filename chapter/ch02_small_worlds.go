package chapter

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"rethink/dataset"
	"rethink/infer"
	"rethink/model"
)

func init() {
	register(&Chapter{
		Name:     "small-worlds",
		Number:   2,
		Title:    "Small Worlds and Large Worlds",
		Synopsis: "Globe tossing: counting paths through a garden of forking data, by grid approximation",
		Run:      runSmallWorlds,
	})
}

// The canonical toss sequence: nine tosses of a miniature globe, recording
// whether the index finger lands on water or land.
const globeTosses = "W L W W W L W L W"

func runSmallWorlds(ctx *Context) error {
	water := strings.Count(globeTosses, "W")
	tosses := len(strings.Fields(globeTosses))

	ctx.Section("Counting water")
	ctx.Para("Toss a globe, catch it, and note whether the index finger rests on "+
		"water or land. The sequence `%s` gives %d water in %d tosses. The question "+
		"is what proportion of the globe is covered by water.", globeTosses, water, tosses)

	src := fmt.Sprintf("p ~ Uniform(0, 1)\nwater ~ Binomial(%d, p)", tosses)
	ctx.Para("The model says each toss is an independent Binomial trial with " +
		"unknown probability `p`, and that before seeing any data every value of " +
		"`p` is equally plausible:")
	ctx.Code(src)

	spec, err := model.Parse(src)
	if err != nil {
		return err
	}
	tbl, err := dataset.NewTable("globe", dataset.Column{
		Name: "water", Kind: dataset.Numeric, Floats: []float64{float64(water)},
	})
	if err != nil {
		return err
	}
	m, err := model.Compile(spec, tbl)
	if err != nil {
		return err
	}

	ctx.Section("Grid approximation")
	ctx.Para("With one parameter the posterior can simply be evaluated on a grid "+
		"of %d candidate values and normalized. Draws resampled from the grid in "+
		"proportion to posterior probability stand in for the posterior itself.",
		ctx.Grid.Points)

	grid, err := ctx.FitGrid(Source("globe", globeTosses), m, infer.GridOptions{
		Points: ctx.Grid.Points,
		Draws:  ctx.Grid.Draws,
		Seed:   ctx.Sampler.Seed,
	})
	if err != nil {
		return err
	}
	if err := ctx.Precis(grid, 0.89); err != nil {
		return err
	}

	// Uniform prior plus Binomial likelihood has a closed form
	exact := distuv.Beta{Alpha: float64(1 + water), Beta: float64(1 + tosses - water)}
	gridMean, err := grid.Mean("p")
	if err != nil {
		return err
	}
	ctx.Para("This posterior has an exact answer, Beta(%d, %d), with mean %.3f. "+
		"The grid mean of %.3f agrees to the resolution of the grid.",
		1+water, 1+tosses-water, exact.Mean(), gridMean)

	ps, err := grid.Column("p")
	if err != nil {
		return err
	}
	path, err := ctx.Figures.Density("ch02_globe_posterior", "Posterior proportion of water", "p", ps)
	if err != nil {
		return err
	}
	ctx.Figure(path, "Grid-approximate posterior for p")

	ctx.Section("Quadratic approximation")
	ctx.Para("Grids stop scaling past a couple of parameters. The quadratic " +
		"approximation instead climbs to the posterior mode and fits a Gaussian " +
		"there, using the curvature at the peak.")

	quap, err := ctx.FitQuap(Source("globe", globeTosses), m, infer.QuapOptions{
		Draws: ctx.Grid.Draws,
		Seed:  ctx.Sampler.Seed,
	})
	if err != nil {
		return err
	}
	if err := ctx.Precis(quap, 0.89); err != nil {
		return err
	}
	quapMean, err := quap.Mean("p")
	if err != nil {
		return err
	}
	ctx.Para("With only %d tosses the posterior is visibly skewed, so the "+
		"Gaussian mean %.3f sits slightly off the exact %.3f. More data would "+
		"close the gap.", tosses, quapMean, exact.Mean())

	ctx.Section("A first Markov chain")
	ctx.Para("A random-walk Metropolis sampler reaches the same posterior a " +
		"third way: propose a nearby value of `p`, accept or reject by the ratio " +
		"of posteriors, repeat. No grid and no Gaussian assumption, just a chain " +
		"of draws.")

	mh, accept, err := infer.Metropolis(m, 5000, ctx.Sampler.StepScale, ctx.Sampler.Seed)
	if err != nil {
		return err
	}
	mhMean, err := mh.Mean("p")
	if err != nil {
		return err
	}
	ctx.Para("After 5000 iterations at %.0f%% acceptance the chain's mean is "+
		"%.3f, again matching the exact %.3f. Later chapters lean on this engine "+
		"when grids and Gaussians both give out.", 100*accept, mhMean, exact.Mean())

	return nil
}

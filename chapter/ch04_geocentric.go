package chapter

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rethink/dataset"
	"rethink/figure"
	"rethink/infer"
	"rethink/model"
	"rethink/posterior"
)

func init() {
	register(&Chapter{
		Name:     "geocentric",
		Number:   4,
		Title:    "Geocentric Models",
		Synopsis: "Gaussian models of !Kung San height, then a linear regression of height on weight",
		Run:      runGeocentric,
	})
}

func runGeocentric(ctx *Context) error {
	tbl, err := dataset.Load("howell1")
	if err != nil {
		return err
	}
	hash, err := dataset.Hash("howell1")
	if err != nil {
		return err
	}

	adults := tbl.Filter(func(row func(col string) float64) bool {
		return row("age") >= 18
	})
	ds := Source("howell1[adults]", hash)

	ctx.Section("A Gaussian model of height")
	ctx.Para("The `howell1` data are census measurements of the !Kung San, "+
		"collected by Nancy Howell. Restricting to adults (age 18 and over) "+
		"leaves %d people, because height varies with age before adulthood:", adults.Len())
	ctx.Code(adults.Head(5))

	srcHeight := `height ~ Normal(mu, sigma)
mu ~ Normal(178, 20)
sigma ~ Uniform(0, 50)`
	ctx.Para("First a model with no predictor at all. Adult height is Normal " +
		"with unknown mean and spread; the prior centers the mean at 178 cm, " +
		"the height of a tall anthropologist:")
	ctx.Code(srcHeight)

	spec, err := model.Parse(srcHeight)
	if err != nil {
		return err
	}
	m1, err := model.Compile(spec, adults)
	if err != nil {
		return err
	}
	fit1, err := ctx.FitQuap(ds, m1, infer.QuapOptions{
		Draws: ctx.Grid.Draws,
		Seed:  ctx.Sampler.Seed,
	})
	if err != nil {
		return err
	}
	if err := ctx.Precis(fit1, 0.89); err != nil {
		return err
	}

	mus, err := fit1.Column("mu")
	if err != nil {
		return err
	}
	path, err := ctx.Figures.Density("ch04_mu_posterior", "Posterior mean adult height", "mu (cm)", mus)
	if err != nil {
		return err
	}
	ctx.Figure(path, "Posterior for mu under the intercept-only model")

	ctx.Section("Adding a predictor")

	weights, err := adults.Floats("weight")
	if err != nil {
		return err
	}
	wbar := stat.Mean(weights, nil)
	centered, err := adults.Centered("weight")
	if err != nil {
		return err
	}

	srcLinear := `height ~ Normal(mu, sigma)
mu <- a + b * weight_c
a ~ Normal(178, 20)
b ~ LogNormal(0, 1)
sigma ~ Uniform(0, 50)`
	ctx.Para("How does height covary with weight? The mean becomes a line in "+
		"centered weight, so the intercept `a` is expected height at the average "+
		"weight (%.1f kg). The LogNormal prior on the slope encodes that heavier "+
		"people are not shorter:", wbar)
	ctx.Code(srcLinear)

	spec, err = model.Parse(srcLinear)
	if err != nil {
		return err
	}
	m2, err := model.Compile(spec, centered)
	if err != nil {
		return err
	}
	fit2, err := ctx.FitQuap(ds, m2, infer.QuapOptions{
		Draws: ctx.Grid.Draws,
		Seed:  ctx.Sampler.Seed,
	})
	if err != nil {
		return err
	}
	if err := ctx.Precis(fit2, 0.89); err != nil {
		return err
	}

	slope, err := fit2.Mean("b")
	if err != nil {
		return err
	}
	ctx.Para("A person 1 kg heavier is expected to be %.2f cm taller. The "+
		"posterior line, with its 89%% interval, can be drawn over the raw data:", slope)

	band, err := regressionBand(fit2, "a", "b", wbar, floats.Min(weights), floats.Max(weights), 30, 0.89)
	if err != nil {
		return err
	}
	heights, err := adults.Floats("height")
	if err != nil {
		return err
	}
	path, err = ctx.Figures.Scatter("ch04_height_weight", "Height against weight, adults",
		"weight (kg)", "height (cm)", weights, heights, band)
	if err != nil {
		return err
	}
	ctx.Figure(path, "Posterior mean line and 89% interval for mu")

	ctx.Para("The interval is for the mean `mu`, not for individuals; the " +
		"scatter of points around the band is what `sigma` describes.")

	return nil
}

// regressionBand evaluates mu = intercept + slope*(x - xbar) across the
// posterior draws on an evenly spaced grid of x, returning the mean and
// central interval.
func regressionBand(draws *posterior.Draws, intercept, slope string, xbar, lo, hi float64, points int, prob float64) (*figure.Band, error) {
	as, err := draws.Column(intercept)
	if err != nil {
		return nil, err
	}
	bs, err := draws.Column(slope)
	if err != nil {
		return nil, err
	}

	band := &figure.Band{
		X:     make([]float64, points),
		Mean:  make([]float64, points),
		Lower: make([]float64, points),
		Upper: make([]float64, points),
	}
	mu := make([]float64, len(as))
	for i := 0; i < points; i++ {
		x := lo + (hi-lo)*float64(i)/float64(points-1)
		for j := range as {
			mu[j] = as[j] + bs[j]*(x-xbar)
		}
		band.X[i] = x
		band.Mean[i] = stat.Mean(mu, nil)
		band.Lower[i], band.Upper[i] = posterior.PI(mu, prob)
	}
	return band, nil
}

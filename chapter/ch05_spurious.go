package chapter

import (
	"rethink/dataset"
	"rethink/infer"
	"rethink/model"
	"rethink/posterior"
)

func init() {
	register(&Chapter{
		Name:     "spurious-association",
		Number:   5,
		Title:    "The Many Variables & The Spurious Waffles",
		Synopsis: "Multiple regression on state divorce rates: an association that evaporates once age at marriage is known",
		Run:      runSpurious,
	})
}

func runSpurious(ctx *Context) error {
	tbl, err := dataset.Load("waffledivorce")
	if err != nil {
		return err
	}
	hash, err := dataset.Hash("waffledivorce")
	if err != nil {
		return err
	}

	for _, col := range []string{"divorce", "marriage", "median_age_marriage"} {
		tbl, err = tbl.Standardized(col)
		if err != nil {
			return err
		}
	}
	ds := Source("waffledivorce[std]", hash)

	ctx.Section("Divorce and marriage")
	ctx.Para("Across the 50 US states, divorce rate correlates with marriage " +
		"rate. It also correlates with the number of Waffle House diners, which " +
		"is a hint that correlation is cheap. All three variables here are " +
		"standardized, so slopes read as standard deviations of outcome per " +
		"standard deviation of predictor.")

	srcM := `divorce_std ~ Normal(mu, sigma)
mu <- a + bM * marriage_std
a ~ Normal(0, 0.2)
bM ~ Normal(0, 0.5)
sigma ~ Exponential(1)`
	ctx.Code(srcM)

	fitM, err := quapFromSource(ctx, ds, srcM, tbl)
	if err != nil {
		return err
	}
	if err := ctx.Precis(fitM, 0.89); err != nil {
		return err
	}

	bM, err := fitM.Mean("bM")
	if err != nil {
		return err
	}
	ctx.Para("Taken alone, marriage rate predicts divorce: bM is about %.2f. "+
		"But states where people marry young also have more marriages. Perhaps "+
		"age at marriage is doing the work.", bM)

	ctx.Section("Divorce and age at marriage")
	srcA := `divorce_std ~ Normal(mu, sigma)
mu <- a + bA * median_age_marriage_std
a ~ Normal(0, 0.2)
bA ~ Normal(0, 0.5)
sigma ~ Exponential(1)`
	ctx.Code(srcA)

	fitA, err := quapFromSource(ctx, ds, srcA, tbl)
	if err != nil {
		return err
	}
	if err := ctx.Precis(fitA, 0.89); err != nil {
		return err
	}

	ages, err := tbl.Floats("median_age_marriage_std")
	if err != nil {
		return err
	}
	divorces, err := tbl.Floats("divorce_std")
	if err != nil {
		return err
	}
	band, err := regressionBand(fitA, "a", "bA", 0, -2.6, 3.0, 30, 0.89)
	if err != nil {
		return err
	}
	path, err := ctx.Figures.Scatter("ch05_age_divorce", "Divorce against age at marriage",
		"median age at marriage (std)", "divorce rate (std)", ages, divorces, band)
	if err != nil {
		return err
	}
	ctx.Figure(path, "Later marriage, less divorce")

	ctx.Section("Both predictors at once")
	ctx.Para("The multiple regression asks a sharper question of each slope: " +
		"what does this predictor add, once the other is already known?")

	srcMA := `divorce_std ~ Normal(mu, sigma)
mu <- a + bM * marriage_std + bA * median_age_marriage_std
a ~ Normal(0, 0.2)
bM ~ Normal(0, 0.5)
bA ~ Normal(0, 0.5)
sigma ~ Exponential(1)`
	ctx.Code(srcMA)

	fitMA, err := quapFromSource(ctx, ds, srcMA, tbl)
	if err != nil {
		return err
	}
	if err := ctx.Precis(fitMA, 0.89); err != nil {
		return err
	}

	bMBoth, err := fitMA.Mean("bM")
	if err != nil {
		return err
	}
	bABoth, err := fitMA.Mean("bA")
	if err != nil {
		return err
	}
	ctx.Para("Once age at marriage is in the model, the marriage-rate slope "+
		"collapses from %.2f to %.2f and its interval straddles zero, while bA "+
		"holds at %.2f. The association between marriage rate and divorce was "+
		"spurious: both are driven by how young people marry. Waffle Houses, "+
		"for the record, fare no better.", bM, bMBoth, bABoth)

	bMs, err := fitMA.Column("bM")
	if err != nil {
		return err
	}
	path, err = ctx.Figures.Density("ch05_bM_posterior", "Marriage-rate slope, given age at marriage", "bM", bMs)
	if err != nil {
		return err
	}
	ctx.Figure(path, "bM in the multiple regression")

	return nil
}

func quapFromSource(ctx *Context, ds dataSource, src string, tbl *dataset.Table) (*posterior.Draws, error) {
	spec, err := model.Parse(src)
	if err != nil {
		return nil, err
	}
	m, err := model.Compile(spec, tbl)
	if err != nil {
		return nil, err
	}
	return ctx.FitQuap(ds, m, infer.QuapOptions{
		Draws: ctx.Grid.Draws,
		Seed:  ctx.Sampler.Seed,
	})
}

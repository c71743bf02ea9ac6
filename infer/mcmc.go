package infer

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/samplemv"

	"rethink/errors"
	"rethink/logger"
	"rethink/model"
	"rethink/posterior"
)

// MCMCOptions controls the Metropolis-Hastings sampler
type MCMCOptions struct {
	Chains     int
	Iterations int // kept draws per chain, after warmup and thinning
	Warmup     int
	Thin       int
	// StepScale is the standard deviation of the random-walk proposal
	StepScale float64
	Seed      uint64
}

// MCMC samples the posterior with gonum's Metropolis-Hastings sampler: an
// independent random-walk chain per requested chain, each with its own seed
// and a prior-sampled start, so the split-Rhat diagnostic means something.
// Chain c uses seed Seed+c; identical options give identical draws.
func MCMC(m *model.Model, opts MCMCOptions) (*posterior.Draws, error) {
	if opts.Chains <= 0 {
		return nil, errors.Newf("mcmc needs a positive chain count, got %d", opts.Chains)
	}
	if opts.Iterations <= 0 {
		return nil, errors.Newf("mcmc needs a positive iteration count, got %d", opts.Iterations)
	}
	if opts.Warmup < 0 {
		return nil, errors.Newf("mcmc warmup cannot be negative, got %d", opts.Warmup)
	}
	if opts.Thin <= 0 {
		opts.Thin = 1
	}
	if opts.StepScale <= 0 {
		return nil, errors.Newf("mcmc needs a positive step scale, got %g", opts.StepScale)
	}

	log := logger.Named("infer.mcmc")
	dim := m.Dim()

	sigma := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		sigma.SetSym(i, i, opts.StepScale*opts.StepScale)
	}

	total := opts.Chains * opts.Iterations
	values := mat.NewDense(total, dim, nil)
	chainTags := make([]int, total)

	for c := 0; c < opts.Chains; c++ {
		src := rand.NewSource(opts.Seed + uint64(c))

		initial := chainStart(m, src)

		proposal, ok := samplemv.NewProposalNormal(sigma, src)
		if !ok {
			return nil, errors.AssertionFailedf("proposal covariance not positive definite")
		}

		sampler := samplemv.MetropolisHastingser{
			Initial:  initial,
			Target:   m,
			Proposal: proposal,
			Src:      src,
			BurnIn:   opts.Warmup,
			Rate:     opts.Thin,
		}

		batch := mat.NewDense(opts.Iterations, dim, nil)
		sampler.Sample(batch)

		accepted := 0
		for i := 0; i < opts.Iterations; i++ {
			row := c*opts.Iterations + i
			values.SetRow(row, batch.RawRowView(i))
			chainTags[row] = c
			if i > 0 && !sameRow(batch, i, i-1) {
				accepted++
			}
		}

		log.Debugw("chain complete",
			"chain", c,
			"draws", opts.Iterations,
			"move_rate", float64(accepted)/float64(opts.Iterations),
		)
	}

	log.Infow("sampling complete",
		"chains", opts.Chains,
		"draws", total,
		"warmup", opts.Warmup,
		"thin", opts.Thin,
	)

	return posterior.New(m.ParamNames(), values, chainTags)
}

// chainStart draws a start point from the prior, retrying a few times when
// the prior lands somewhere the posterior is zero, then falling back to the
// model's deterministic initial point.
func chainStart(m *model.Model, src rand.Source) []float64 {
	for i := 0; i < 10; i++ {
		theta := m.PriorSample(src)
		if !math.IsInf(m.LogProb(theta), -1) {
			return theta
		}
	}
	return m.InitialPoint()
}

func sameRow(d *mat.Dense, i, j int) bool {
	_, c := d.Dims()
	for k := 0; k < c; k++ {
		if d.At(i, k) != d.At(j, k) {
			return false
		}
	}
	return true
}

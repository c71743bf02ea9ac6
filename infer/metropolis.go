package infer

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"rethink/errors"
	"rethink/logger"
	"rethink/model"
	"rethink/posterior"
)

// Metropolis is the teaching sampler the book walks through before handing
// the job to real tooling: perturb one parameter with a Gaussian step, accept
// with probability exp(logPost' - logPost), keep the old point otherwise.
// Single chain, no warmup, no tuning. Use MCMC for anything that matters.
func Metropolis(m *model.Model, iterations int, step float64, seed uint64) (*posterior.Draws, float64, error) {
	if iterations <= 0 {
		return nil, 0, errors.Newf("metropolis needs a positive iteration count, got %d", iterations)
	}
	if step <= 0 {
		return nil, 0, errors.Newf("metropolis needs a positive step size, got %g", step)
	}

	log := logger.Named("infer.metropolis")
	dim := m.Dim()
	rng := rand.New(rand.NewSource(seed))

	theta := m.InitialPoint()
	lp := m.LogProb(theta)

	accepted := 0
	values := mat.NewDense(iterations, dim, nil)
	for i := 0; i < iterations; i++ {
		p := rng.Intn(dim)
		old := theta[p]
		theta[p] = old + rng.NormFloat64()*step

		newLP := m.LogProb(theta)
		a := math.Exp(newLP - lp)
		if a >= 1 || rng.Float64() < a {
			lp = newLP
			accepted++
		} else {
			theta[p] = old
		}
		values.SetRow(i, theta)
	}

	rate := float64(accepted) / float64(iterations)
	log.Debugw("metropolis finished",
		"iterations", iterations,
		"acceptance_rate", rate,
	)

	draws, err := posterior.New(m.ParamNames(), values, nil)
	if err != nil {
		return nil, 0, err
	}
	return draws, rate, nil
}

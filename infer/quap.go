package infer

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distmv"

	"rethink/errors"
	"rethink/logger"
	"rethink/model"
	"rethink/posterior"
)

// QuapOptions controls the quadratic approximation
type QuapOptions struct {
	// Draws sampled from the fitted Gaussian
	Draws int
	// Start overrides the model's initial point
	Start []float64
	Seed  uint64
}

// Quap fits the quadratic approximation: find the posterior mode with
// Nelder-Mead, take the curvature there by finite differences, and treat the
// posterior as the implied multivariate Gaussian. Exact for Gaussian
// posteriors, good for the unimodal ones the early chapters use.
func Quap(m *model.Model, opts QuapOptions) (*posterior.Draws, error) {
	if opts.Draws <= 0 {
		return nil, errors.Newf("quap needs a positive draw count, got %d", opts.Draws)
	}

	log := logger.Named("infer.quap")
	dim := m.Dim()

	negLogPost := func(x []float64) float64 {
		lp := m.LogProb(x)
		if math.IsInf(lp, -1) || math.IsNaN(lp) {
			return math.MaxFloat64
		}
		return -lp
	}

	start := opts.Start
	if start == nil {
		start = m.InitialPoint()
	}
	if len(start) != dim {
		return nil, errors.Newf("quap start point has %d values for %d parameters", len(start), dim)
	}

	problem := optimize.Problem{Func: negLogPost}
	result, err := optimize.Minimize(problem, start, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDidNotConverge, err.Error())
	}
	if err := result.Status.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrDidNotConverge, err.Error())
	}

	log.Debugw("posterior mode located",
		"evaluations", result.FuncEvaluations,
		"neg_log_posterior", result.F,
	)

	// Curvature at the mode is the precision of the Gaussian approximation
	hess := mat.NewSymDense(dim, nil)
	fd.Hessian(hess, negLogPost, result.X, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrDidNotConverge, "curvature at the mode is not positive definite"),
			"the posterior may be flat or multimodal here; try MCMC instead")
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, errors.Wrap(errors.ErrDidNotConverge, err.Error())
	}

	src := rand.NewSource(opts.Seed)
	normal, ok := distmv.NewNormal(result.X, &cov, src)
	if !ok {
		return nil, errors.Wrap(errors.ErrDidNotConverge, "covariance at the mode is not positive definite")
	}

	values := mat.NewDense(opts.Draws, dim, nil)
	for i := 0; i < opts.Draws; i++ {
		normal.Rand(values.RawRowView(i))
	}

	return posterior.New(m.ParamNames(), values, nil)
}

// Package infer fits compiled models. Three engines matter: grid
// approximation and the toy Metropolis sampler exist for pedagogy, the
// quadratic approximation and the gonum Metropolis-Hastings sampler do the
// real work. Hamiltonian Monte Carlo is out of scope on purpose; when a
// model needs gradients, that is a job for dedicated samplers, not this
// package.
package infer

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"rethink/errors"
	"rethink/model"
	"rethink/posterior"
)

// GridOptions controls grid approximation
type GridOptions struct {
	// Points per dimension
	Points int
	// Draws sampled from the normalized grid
	Draws int
	// Ranges optionally pins the grid extent per parameter; parameters not
	// listed get a range from sampling their prior.
	Ranges map[string][2]float64
	Seed   uint64
}

// Grid approximates the posterior by evaluating it over an evenly spaced
// grid and sampling the normalized result. Only practical for one- and
// two-parameter models; larger models get a refusal, not a slow answer.
func Grid(m *model.Model, opts GridOptions) (*posterior.Draws, error) {
	dim := m.Dim()
	if dim > 2 {
		return nil, errors.Newf("grid approximation supports at most 2 parameters, model has %d", dim)
	}
	if opts.Points <= 1 {
		return nil, errors.Newf("grid needs at least 2 points per dimension, got %d", opts.Points)
	}
	if opts.Draws <= 0 {
		return nil, errors.Newf("grid needs a positive draw count, got %d", opts.Draws)
	}

	src := rand.NewSource(opts.Seed)
	params := m.ParamNames()

	axes := make([][]float64, dim)
	for i, p := range params {
		lo, hi, err := paramRange(m, p, opts.Ranges, src)
		if err != nil {
			return nil, err
		}
		axes[i] = linspace(lo, hi, opts.Points)
	}

	// Evaluate the unnormalized posterior at every grid point
	points := make([][]float64, 0, intPow(opts.Points, dim))
	logPost := make([]float64, 0, intPow(opts.Points, dim))
	theta := make([]float64, dim)
	var walk func(d int)
	walk = func(d int) {
		if d == dim {
			pt := make([]float64, dim)
			copy(pt, theta)
			points = append(points, pt)
			logPost = append(logPost, m.LogProb(theta))
			return
		}
		for _, v := range axes[d] {
			theta[d] = v
			walk(d + 1)
		}
	}
	walk(0)

	// Normalize in log space before exponentiating
	maxLP := math.Inf(-1)
	for _, lp := range logPost {
		if lp > maxLP {
			maxLP = lp
		}
	}
	if math.IsInf(maxLP, -1) {
		return nil, errors.Wrap(errors.ErrDidNotConverge, "posterior is zero everywhere on the grid")
	}

	weights := make([]float64, len(logPost))
	for i, lp := range logPost {
		weights[i] = math.Exp(lp - maxLP)
	}

	// Sample grid points proportional to posterior probability
	cum := make([]float64, len(weights))
	floats.CumSum(cum, weights)
	total := cum[len(cum)-1]

	uniform := rand.New(src)
	values := mat.NewDense(opts.Draws, dim, nil)
	for i := 0; i < opts.Draws; i++ {
		u := uniform.Float64() * total
		idx := sort.SearchFloat64s(cum, u)
		if idx >= len(points) {
			idx = len(points) - 1
		}
		values.SetRow(i, points[idx])
	}

	return posterior.New(params, values, nil)
}

// paramRange picks the grid extent for one parameter: an explicit range when
// given, otherwise the span of prior samples padded by 10%.
func paramRange(m *model.Model, param string, ranges map[string][2]float64, src rand.Source) (float64, float64, error) {
	if r, ok := ranges[param]; ok {
		if r[1] <= r[0] {
			return 0, 0, errors.Newf("grid range for %s is empty: [%g, %g]", param, r[0], r[1])
		}
		return r[0], r[1], nil
	}

	idx := -1
	for i, p := range m.ParamNames() {
		if p == param {
			idx = i
		}
	}
	if idx < 0 {
		return 0, 0, errors.NewNotFoundError("parameter %q", param)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < 1000; i++ {
		theta := m.PriorSample(src)
		if theta[idx] < lo {
			lo = theta[idx]
		}
		if theta[idx] > hi {
			hi = theta[idx]
		}
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad, nil
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func intPow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}

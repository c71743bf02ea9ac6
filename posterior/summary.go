package posterior

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"rethink/errors"
)

// Summary is one row of a precis table
type Summary struct {
	Param string
	Mean  float64
	SD    float64
	Lower float64 // lower bound of the compatibility interval
	Upper float64
	Rhat  float64 // NaN when fewer than 2 chains
	ESS   float64 // NaN when not from MCMC
}

// Precis summarizes every parameter: mean, standard deviation, and the
// central compatibility interval of the given probability mass. R-hat and
// effective sample size are filled in when the draws carry 2+ chains.
func (d *Draws) Precis(prob float64) ([]Summary, error) {
	if prob <= 0 || prob >= 1 {
		return nil, errors.Newf("posterior: interval mass %g outside (0, 1)", prob)
	}
	out := make([]Summary, 0, len(d.params))
	for _, p := range d.params {
		xs, err := d.Column(p)
		if err != nil {
			return nil, err
		}
		mean, sd := stat.MeanStdDev(xs, nil)
		lo, hi := PI(xs, prob)

		s := Summary{Param: p, Mean: mean, SD: sd, Lower: lo, Upper: hi, Rhat: math.NaN(), ESS: math.NaN()}
		if d.chains >= 2 {
			perChain := make([][]float64, d.chains)
			for c := 0; c < d.chains; c++ {
				perChain[c], err = d.ChainColumn(p, c)
				if err != nil {
					return nil, err
				}
			}
			s.Rhat = SplitRhat(perChain)
			s.ESS = EffectiveSampleSize(perChain)
		}
		out = append(out, s)
	}
	return out, nil
}

// PI returns the central percentile interval containing prob mass
func PI(xs []float64, prob float64) (lo, hi float64) {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	tail := (1 - prob) / 2
	lo = stat.Quantile(tail, stat.Empirical, sorted, nil)
	hi = stat.Quantile(1-tail, stat.Empirical, sorted, nil)
	return lo, hi
}

// HPDI returns the narrowest interval containing prob mass: the minimum-width
// window of ceil(prob*n) consecutive order statistics.
func HPDI(xs []float64, prob float64) (lo, hi float64) {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	window := int(math.Ceil(prob * float64(n)))
	if window < 1 {
		window = 1
	}
	if window >= n {
		return sorted[0], sorted[n-1]
	}

	bestLo, bestHi := sorted[0], sorted[window-1]
	bestWidth := bestHi - bestLo
	for i := 1; i+window <= n; i++ {
		width := sorted[i+window-1] - sorted[i]
		if width < bestWidth {
			bestWidth = width
			bestLo, bestHi = sorted[i], sorted[i+window-1]
		}
	}
	return bestLo, bestHi
}

// Mean returns the posterior mean of one parameter
func (d *Draws) Mean(param string) (float64, error) {
	xs, err := d.Column(param)
	if err != nil {
		return 0, err
	}
	return stat.Mean(xs, nil), nil
}

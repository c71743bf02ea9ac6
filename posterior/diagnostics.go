package posterior

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SplitRhat computes the split potential-scale-reduction statistic over the
// per-chain draws of one parameter. Each chain is split in half, doubling the
// chain count, which also catches within-chain drift. Values near 1 indicate
// the chains agree; above ~1.05 they have not mixed.
func SplitRhat(chains [][]float64) float64 {
	var halves [][]float64
	for _, ch := range chains {
		if len(ch) < 4 {
			return math.NaN()
		}
		mid := len(ch) / 2
		halves = append(halves, ch[:mid], ch[mid:mid*2])
	}

	m := float64(len(halves))
	n := float64(len(halves[0]))

	chainMeans := make([]float64, len(halves))
	chainVars := make([]float64, len(halves))
	for i, h := range halves {
		chainMeans[i], chainVars[i] = meanVariance(h)
	}

	grandMean := stat.Mean(chainMeans, nil)

	// Between-chain variance
	b := 0.0
	for _, cm := range chainMeans {
		b += (cm - grandMean) * (cm - grandMean)
	}
	b *= n / (m - 1)

	// Within-chain variance
	w := stat.Mean(chainVars, nil)
	if w == 0 {
		return math.NaN()
	}

	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}

// EffectiveSampleSize estimates the number of independent draws across the
// chains of one parameter, using the initial-positive-sequence estimator on
// the averaged per-chain autocorrelations.
func EffectiveSampleSize(chains [][]float64) float64 {
	total := 0
	minLen := math.MaxInt
	for _, ch := range chains {
		total += len(ch)
		if len(ch) < minLen {
			minLen = len(ch)
		}
	}
	if total == 0 || minLen < 4 {
		return math.NaN()
	}

	maxLag := minLen - 1
	if maxLag > 1000 {
		maxLag = 1000
	}

	// Average autocorrelation across chains at each lag
	sumRho := 0.0
	for lag := 1; lag < maxLag; lag += 2 {
		// Geyer's initial positive sequence: sum consecutive lag pairs,
		// stop at the first negative pair sum.
		pair := avgAutocorr(chains, lag) + avgAutocorr(chains, lag+1)
		if pair < 0 {
			break
		}
		sumRho += pair
	}

	ess := float64(total) / (1 + 2*sumRho)
	if ess > float64(total) {
		ess = float64(total)
	}
	return ess
}

func avgAutocorr(chains [][]float64, lag int) float64 {
	sum := 0.0
	count := 0
	for _, ch := range chains {
		if lag >= len(ch) {
			continue
		}
		sum += autocorr(ch, lag)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func autocorr(xs []float64, lag int) float64 {
	mean, variance := meanVariance(xs)
	if variance == 0 {
		return 0
	}
	n := len(xs)
	acc := 0.0
	for i := 0; i+lag < n; i++ {
		acc += (xs[i] - mean) * (xs[i+lag] - mean)
	}
	return acc / (float64(n) * variance)
}

func meanVariance(xs []float64) (mean, variance float64) {
	mean = stat.Mean(xs, nil)
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs) - 1)
	return mean, variance
}

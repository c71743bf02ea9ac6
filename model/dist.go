package model

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"rethink/errors"
)

// Dist is the slice of gonum's distribution interface the compiler needs:
// log-density for posterior evaluation, Rand for prior sampling, Mean for
// initial points.
type Dist interface {
	LogProb(x float64) float64
	Rand() float64
	Mean() float64
}

type distDef struct {
	arity int
	build func(args []float64, src rand.Source) (Dist, error)
}

// distributions maps specification names onto gonum distuv constructors.
// Argument validity is checked here; the compiler turns a build error into a
// log-posterior of -Inf, which is how invalid proposals get rejected.
var distributions = map[string]distDef{
	"Normal": {2, func(a []float64, src rand.Source) (Dist, error) {
		if a[1] <= 0 {
			return nil, errors.Newf("Normal: sigma %g <= 0", a[1])
		}
		return distuv.Normal{Mu: a[0], Sigma: a[1], Src: src}, nil
	}},
	"LogNormal": {2, func(a []float64, src rand.Source) (Dist, error) {
		if a[1] <= 0 {
			return nil, errors.Newf("LogNormal: sigma %g <= 0", a[1])
		}
		return distuv.LogNormal{Mu: a[0], Sigma: a[1], Src: src}, nil
	}},
	"Uniform": {2, func(a []float64, src rand.Source) (Dist, error) {
		if a[1] <= a[0] {
			return nil, errors.Newf("Uniform: max %g <= min %g", a[1], a[0])
		}
		return distuv.Uniform{Min: a[0], Max: a[1], Src: src}, nil
	}},
	"Exponential": {1, func(a []float64, src rand.Source) (Dist, error) {
		if a[0] <= 0 {
			return nil, errors.Newf("Exponential: rate %g <= 0", a[0])
		}
		return distuv.Exponential{Rate: a[0], Src: src}, nil
	}},
	"Beta": {2, func(a []float64, src rand.Source) (Dist, error) {
		if a[0] <= 0 || a[1] <= 0 {
			return nil, errors.Newf("Beta: shape parameters must be positive, got (%g, %g)", a[0], a[1])
		}
		return distuv.Beta{Alpha: a[0], Beta: a[1], Src: src}, nil
	}},
	"Binomial": {2, func(a []float64, src rand.Source) (Dist, error) {
		n := a[0]
		p := a[1]
		if n < 0 || n != math.Floor(n) {
			return nil, errors.Newf("Binomial: size %g is not a non-negative integer", n)
		}
		if p < 0 || p > 1 {
			return nil, errors.Newf("Binomial: probability %g outside [0, 1]", p)
		}
		return distuv.Binomial{N: n, P: p, Src: src}, nil
	}},
}

// knownDistributions lists the supported names, sorted, for error messages
func knownDistributions() string {
	names := make([]string, 0, len(distributions))
	for name := range distributions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

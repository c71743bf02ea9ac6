package infer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"rethink/dataset"
	"rethink/model"
)

// globeModel is the globe-tossing posterior: 6 waters in 9 tosses under a
// flat prior, so the posterior is Beta(7, 4) with mean 7/11.
func globeModel(t *testing.T) *model.Model {
	t.Helper()
	tbl, err := dataset.NewTable("tosses",
		dataset.Column{Name: "w", Kind: dataset.Numeric, Floats: []float64{6}},
		dataset.Column{Name: "n", Kind: dataset.Numeric, Floats: []float64{9}},
	)
	require.NoError(t, err)

	spec, err := model.Parse("w ~ Binomial(n, p)\np ~ Uniform(0, 1)")
	require.NoError(t, err)
	m, err := model.Compile(spec, tbl)
	require.NoError(t, err)
	return m
}

// conjugateModel observes gaussian data with known sigma=1 under a standard
// normal prior on the mean, so the posterior is analytic.
func conjugateModel(t *testing.T, ys []float64) *model.Model {
	t.Helper()
	tbl, err := dataset.NewTable("obs",
		dataset.Column{Name: "y", Kind: dataset.Numeric, Floats: ys},
	)
	require.NoError(t, err)

	spec, err := model.Parse("y ~ Normal(mu, 1)\nmu ~ Normal(0, 1)")
	require.NoError(t, err)
	m, err := model.Compile(spec, tbl)
	require.NoError(t, err)
	return m
}

func conjugatePosterior(ys []float64) (mean, sd float64) {
	sum := 0.0
	for _, y := range ys {
		sum += y
	}
	n := float64(len(ys))
	return sum / (n + 1), 1 / math.Sqrt(n+1)
}

func TestGrid(t *testing.T) {
	t.Run("globe tossing matches the analytic posterior", func(t *testing.T) {
		m := globeModel(t)
		draws, err := Grid(m, GridOptions{Points: 500, Draws: 20000, Seed: 1})
		require.NoError(t, err)

		ps, err := draws.Column("p")
		require.NoError(t, err)
		mean, sd := stat.MeanStdDev(ps, nil)

		// Beta(7, 4): mean 7/11, sd sqrt(28/(121*12))
		assert.InDelta(t, 7.0/11.0, mean, 0.01)
		assert.InDelta(t, math.Sqrt(28.0/(121.0*12.0)), sd, 0.01)
	})

	t.Run("explicit ranges respected", func(t *testing.T) {
		m := globeModel(t)
		draws, err := Grid(m, GridOptions{
			Points: 100,
			Draws:  1000,
			Ranges: map[string][2]float64{"p": {0, 1}},
			Seed:   2,
		})
		require.NoError(t, err)
		ps, _ := draws.Column("p")
		for _, p := range ps {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
	})

	t.Run("too many parameters refused", func(t *testing.T) {
		spec, err := model.Parse("a ~ Normal(0, 1)\nb ~ Normal(0, 1)\nc ~ Normal(0, 1)")
		require.NoError(t, err)
		m, err := model.Compile(spec, nil)
		require.NoError(t, err)

		_, err = Grid(m, GridOptions{Points: 10, Draws: 10})
		assert.Error(t, err)
	})
}

func TestQuap(t *testing.T) {
	t.Run("recovers the conjugate gaussian posterior", func(t *testing.T) {
		ys := []float64{0.8, 1.2, 0.4, 1.6, 1.0, 0.6, 1.4, 0.9, 1.1, 1.0}
		m := conjugateModel(t, ys)

		draws, err := Quap(m, QuapOptions{Draws: 20000, Seed: 3})
		require.NoError(t, err)

		wantMean, wantSD := conjugatePosterior(ys)
		mus, _ := draws.Column("mu")
		mean, sd := stat.MeanStdDev(mus, nil)
		assert.InDelta(t, wantMean, mean, 0.01)
		assert.InDelta(t, wantSD, sd, 0.01)
	})

	t.Run("invalid draw count", func(t *testing.T) {
		m := conjugateModel(t, []float64{1})
		_, err := Quap(m, QuapOptions{Draws: 0})
		assert.Error(t, err)
	})
}

func TestMetropolis(t *testing.T) {
	ys := []float64{0.8, 1.2, 0.4, 1.6, 1.0}
	m := conjugateModel(t, ys)

	draws, rate, err := Metropolis(m, 20000, 0.5, 4)
	require.NoError(t, err)
	assert.Greater(t, rate, 0.1)
	assert.Less(t, rate, 0.95)

	wantMean, _ := conjugatePosterior(ys)
	mus, _ := draws.Column("mu")
	// Burn off the walk from the initial point before summarizing
	assert.InDelta(t, wantMean, stat.Mean(mus[2000:], nil), 0.05)
}

func TestMCMC(t *testing.T) {
	t.Run("recovers the conjugate posterior with healthy diagnostics", func(t *testing.T) {
		ys := []float64{0.8, 1.2, 0.4, 1.6, 1.0, 0.6, 1.4, 0.9, 1.1, 1.0}
		m := conjugateModel(t, ys)

		draws, err := MCMC(m, MCMCOptions{
			Chains:     4,
			Iterations: 2000,
			Warmup:     1000,
			Thin:       2,
			StepScale:  0.3,
			Seed:       5,
		})
		require.NoError(t, err)
		assert.Equal(t, 8000, draws.N())
		assert.Equal(t, 4, draws.Chains())

		wantMean, wantSD := conjugatePosterior(ys)
		rows, err := draws.Precis(0.89)
		require.NoError(t, err)
		r := rows[0]
		assert.InDelta(t, wantMean, r.Mean, 0.05)
		assert.InDelta(t, wantSD, r.SD, 0.05)
		assert.InDelta(t, 1.0, r.Rhat, 0.05)
		assert.Greater(t, r.ESS, 100.0)
	})

	t.Run("reproducible at fixed seed", func(t *testing.T) {
		m := conjugateModel(t, []float64{1.0, 0.5})
		opts := MCMCOptions{Chains: 2, Iterations: 200, Warmup: 100, StepScale: 0.4, Seed: 6}

		a, err := MCMC(m, opts)
		require.NoError(t, err)
		b, err := MCMC(m, opts)
		require.NoError(t, err)

		xa, _ := a.Column("mu")
		xb, _ := b.Column("mu")
		assert.Equal(t, xa, xb)
	})

	t.Run("option validation", func(t *testing.T) {
		m := conjugateModel(t, []float64{1})
		_, err := MCMC(m, MCMCOptions{Chains: 0, Iterations: 10, StepScale: 0.1})
		assert.Error(t, err)
		_, err = MCMC(m, MCMCOptions{Chains: 1, Iterations: 10, StepScale: -1})
		assert.Error(t, err)
	})
}

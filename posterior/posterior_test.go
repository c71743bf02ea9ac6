package posterior

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"rethink/errors"
)

func gaussianDraws(t *testing.T, n, chains int, mu, sigma float64, seed uint64) *Draws {
	t.Helper()
	src := rand.NewSource(seed)
	norm := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}

	values := mat.NewDense(n*chains, 1, nil)
	chain := make([]int, n*chains)
	for c := 0; c < chains; c++ {
		for i := 0; i < n; i++ {
			row := c*n + i
			values.Set(row, 0, norm.Rand())
			chain[row] = c
		}
	}
	d, err := New([]string{"mu"}, values, chain)
	require.NoError(t, err)
	return d
}

func TestNew(t *testing.T) {
	t.Run("column count must match params", func(t *testing.T) {
		_, err := New([]string{"a", "b"}, mat.NewDense(3, 1, nil), nil)
		assert.Error(t, err)
	})

	t.Run("nil chain tags default to single chain", func(t *testing.T) {
		d, err := New([]string{"a"}, mat.NewDense(3, 1, []float64{1, 2, 3}), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, d.Chains())
		assert.Equal(t, 3, d.N())
	})

	t.Run("duplicate params rejected", func(t *testing.T) {
		_, err := New([]string{"a", "a"}, mat.NewDense(2, 2, nil), nil)
		assert.Error(t, err)
	})
}

func TestColumns(t *testing.T) {
	d, err := New([]string{"a", "b"},
		mat.NewDense(4, 2, []float64{
			1, 10,
			2, 20,
			3, 30,
			4, 40,
		}),
		[]int{0, 0, 1, 1})
	require.NoError(t, err)

	t.Run("column copy", func(t *testing.T) {
		xs, err := d.Column("b")
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20, 30, 40}, xs)

		xs[0] = 99
		again, _ := d.Column("b")
		assert.Equal(t, 10.0, again[0], "Column must return a copy")
	})

	t.Run("chain column", func(t *testing.T) {
		xs, err := d.ChainColumn("a", 1)
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 4}, xs)
	})

	t.Run("unknown param", func(t *testing.T) {
		_, err := d.Column("c")
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestIntervals(t *testing.T) {
	t.Run("PI on a known vector", func(t *testing.T) {
		xs := make([]float64, 100)
		for i := range xs {
			xs[i] = float64(i + 1) // 1..100
		}
		lo, hi := PI(xs, 0.9)
		assert.InDelta(t, 5, lo, 1.0)
		assert.InDelta(t, 95, hi, 1.0)
	})

	t.Run("HPDI is narrowest", func(t *testing.T) {
		// Right-skewed: HPDI should hug the dense left side
		src := rand.NewSource(3)
		ln := distuv.LogNormal{Mu: 0, Sigma: 1, Src: src}
		xs := make([]float64, 5000)
		for i := range xs {
			xs[i] = ln.Rand()
		}
		plo, phi := PI(xs, 0.9)
		hlo, hhi := HPDI(xs, 0.9)
		assert.Less(t, hhi-hlo, phi-plo)
		assert.Less(t, hlo, plo)
	})

	t.Run("HPDI window of whole sample", func(t *testing.T) {
		lo, hi := HPDI([]float64{3, 1, 2}, 0.99)
		assert.Equal(t, 1.0, lo)
		assert.Equal(t, 3.0, hi)
	})
}

func TestPrecis(t *testing.T) {
	d := gaussianDraws(t, 2000, 4, 5.0, 2.0, 42)

	rows, err := d.Precis(0.89)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "mu", r.Param)
	assert.InDelta(t, 5.0, r.Mean, 0.15)
	assert.InDelta(t, 2.0, r.SD, 0.15)
	assert.Less(t, r.Lower, r.Upper)

	// Independent draws: chains agree, ESS near the draw count
	assert.InDelta(t, 1.0, r.Rhat, 0.02)
	assert.Greater(t, r.ESS, 4000.0)

	t.Run("invalid mass rejected", func(t *testing.T) {
		_, err := d.Precis(1.5)
		assert.Error(t, err)
	})
}

func TestDiagnosticsDetectBadChains(t *testing.T) {
	// Two chains stuck in different places: Rhat far from 1
	n := 500
	values := mat.NewDense(2*n, 1, nil)
	chain := make([]int, 2*n)
	src := rand.NewSource(7)
	norm := distuv.Normal{Mu: 0, Sigma: 0.1, Src: src}
	for i := 0; i < n; i++ {
		values.Set(i, 0, norm.Rand())
		chain[i] = 0
		values.Set(n+i, 0, 10+norm.Rand())
		chain[n+i] = 1
	}
	d, err := New([]string{"a"}, values, chain)
	require.NoError(t, err)

	rows, err := d.Precis(0.89)
	require.NoError(t, err)
	assert.Greater(t, rows[0].Rhat, 1.5)
}

func TestFlattenRoundTrip(t *testing.T) {
	d := gaussianDraws(t, 50, 2, 0, 1, 9)

	f := d.Flatten()
	back, err := FromFlat(f)
	require.NoError(t, err)

	assert.Equal(t, d.N(), back.N())
	assert.Equal(t, d.Chains(), back.Chains())
	orig, _ := d.Column("mu")
	got, _ := back.Column("mu")
	assert.Equal(t, orig, got)
}

func TestRenderPrecis(t *testing.T) {
	d := gaussianDraws(t, 200, 2, 1.0, 0.5, 11)
	rows, err := d.Precis(0.89)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderPrecis(&buf, rows, 0.89))
	assert.Contains(t, buf.String(), "mu")

	plain := FormatPrecis(rows, 0.89)
	assert.Contains(t, plain, "param")
	assert.Contains(t, plain, "rhat")
	assert.False(t, math.IsNaN(rows[0].Rhat))
}

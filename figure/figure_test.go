package figure

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"rethink/posterior"
)

func normalSample(n int, seed uint64) []float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = norm.Rand()
	}
	return xs
}

func TestWorkshop(t *testing.T) {
	w, err := NewWorkshop(t.TempDir(), 6, 4)
	require.NoError(t, err)

	t.Run("density writes a png", func(t *testing.T) {
		path, err := w.Density("posterior_mu", "posterior of mu", "mu", normalSample(500, 1))
		require.NoError(t, err)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})

	t.Run("density rejects tiny input", func(t *testing.T) {
		_, err := w.Density("bad", "bad", "x", []float64{1})
		assert.Error(t, err)
	})

	t.Run("trace writes a png per-chain", func(t *testing.T) {
		values := mat.NewDense(200, 1, nil)
		chain := make([]int, 200)
		xs := normalSample(200, 2)
		for i, x := range xs {
			values.Set(i, 0, x)
			chain[i] = i % 2
		}
		draws, err := posterior.New([]string{"a"}, values, chain)
		require.NoError(t, err)

		path, err := w.Trace("trace_a", "trace of a", draws, "a")
		require.NoError(t, err)
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("scatter with band", func(t *testing.T) {
		xs := []float64{1, 2, 3, 4, 5}
		ys := []float64{1.1, 2.3, 2.8, 4.2, 4.9}
		band := &Band{
			X:     []float64{1, 3, 5},
			Mean:  []float64{1, 3, 5},
			Lower: []float64{0.5, 2.5, 4.5},
			Upper: []float64{1.5, 3.5, 5.5},
		}
		path, err := w.Scatter("fit", "posterior fit", "x", "y", xs, ys, band)
		require.NoError(t, err)
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("scatter rejects mismatched lengths", func(t *testing.T) {
		_, err := w.Scatter("bad", "bad", "x", "y", []float64{1}, []float64{1, 2}, nil)
		assert.Error(t, err)
	})

	t.Run("kde integrates to one", func(t *testing.T) {
		grid, heights := kde(normalSample(1000, 3), 400)
		step := grid[1] - grid[0]
		total := 0.0
		for _, h := range heights {
			total += h * step
		}
		assert.InDelta(t, 1.0, total, 0.05)
	})
}

package chapter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rethink/config"
	"rethink/dataset"
	"rethink/errors"
	"rethink/figure"
	"rethink/fitcache"
	"rethink/infer"
	"rethink/logger"
	"rethink/model"
)

func testContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()
	require.NoError(t, logger.Initialize(0, false))

	w, err := figure.NewWorkshop(t.TempDir(), 4, 3)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &Context{
		Out:     out,
		Figures: w,
		Sampler: config.SamplerConfig{
			Chains: 2, Iterations: 300, Warmup: 200, Thin: 1, StepScale: 0.1, Seed: 42,
		},
		Grid: config.GridConfig{Points: 100, Draws: 1000},
		Log:  logger.Named("test"),
	}, out
}

func TestRegistry(t *testing.T) {
	chapters := All()
	require.Len(t, chapters, 4)

	t.Run("ordered by book number", func(t *testing.T) {
		for i := 1; i < len(chapters); i++ {
			assert.Less(t, chapters[i-1].Number, chapters[i].Number)
		}
	})

	t.Run("every chapter is complete", func(t *testing.T) {
		for _, ch := range chapters {
			assert.NotEmpty(t, ch.Name)
			assert.NotEmpty(t, ch.Title)
			assert.NotEmpty(t, ch.Synopsis)
			assert.NotNil(t, ch.Run)
		}
	})

	t.Run("lookup by slug", func(t *testing.T) {
		ch, err := Lookup("small-worlds")
		require.NoError(t, err)
		assert.Equal(t, 2, ch.Number)
	})

	t.Run("unknown slug is a not-found error", func(t *testing.T) {
		_, err := Lookup("owls")
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestChaptersRun(t *testing.T) {
	for _, ch := range All() {
		t.Run(ch.Name, func(t *testing.T) {
			ctx, out := testContext(t)
			require.NoError(t, ch.Run(ctx))

			text := out.String()
			assert.Contains(t, text, "## ", "chapter should emit sections")
			assert.Contains(t, text, "```", "chapter should emit model or precis blocks")
			assert.Contains(t, text, "![", "chapter should emit at least one figure")
		})
	}
}

func TestFitGoesThroughCache(t *testing.T) {
	ctx, _ := testContext(t)

	cache, err := fitcache.Open(filepath.Join(t.TempDir(), "fits.db"), ctx.Log)
	require.NoError(t, err)
	defer cache.Close()
	ctx.Cache = cache

	spec, err := model.Parse("p ~ Uniform(0, 1)\nwater ~ Binomial(9, p)")
	require.NoError(t, err)
	tbl, err := dataset.NewTable("globe", dataset.Column{
		Name: "water", Kind: dataset.Numeric, Floats: []float64{6},
	})
	require.NoError(t, err)
	m, err := model.Compile(spec, tbl)
	require.NoError(t, err)

	opts := infer.QuapOptions{Draws: 500, Seed: 7}
	first, err := ctx.FitQuap(Source("globe", "test"), m, opts)
	require.NoError(t, err)

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Fits)

	second, err := ctx.FitQuap(Source("globe", "test"), m, opts)
	require.NoError(t, err)
	require.Equal(t, first.N(), second.N())
	for _, p := range first.Params() {
		a, err := first.Column(p)
		require.NoError(t, err)
		b, err := second.Column(p)
		require.NoError(t, err)
		assert.Equal(t, a, b, "cached draws should be byte-stable for %s", p)
	}

	t.Run("no-cache bypasses load but still stores", func(t *testing.T) {
		ctx.NoCache = true
		_, err := ctx.FitQuap(Source("globe", "test"), m, opts)
		require.NoError(t, err)
		stats, err := cache.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Fits, "same key overwrites, count stays at one")
	})
}

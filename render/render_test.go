package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rethink/chapter"
	"rethink/config"
	"rethink/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	require.NoError(t, logger.Initialize(0, false))

	cfg := config.Defaults()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Sampler.Chains = 2
	cfg.Sampler.Iterations = 200
	cfg.Sampler.Warmup = 100
	cfg.Grid.Points = 100
	cfg.Grid.Draws = 500
	cfg.Figures.WidthInches = 4
	cfg.Figures.HeightInches = 3
	return cfg
}

func TestRenderChapter(t *testing.T) {
	cfg := testConfig(t)
	r := New(cfg, nil, false, logger.Named("render"))

	ch, err := chapter.Lookup("small-worlds")
	require.NoError(t, err)

	path, err := r.Chapter(ch)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Paths.OutputDir, "small-worlds", "index.md"), path)

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(doc)
	assert.Contains(t, text, "# 2. Small Worlds and Large Worlds")
	assert.Contains(t, text, "## Grid approximation")
	assert.Contains(t, text, "![")

	t.Run("figures land beside the document", func(t *testing.T) {
		pngs, err := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, "small-worlds", "*.png"))
		require.NoError(t, err)
		assert.NotEmpty(t, pngs)
	})
}

func TestWatchRerenders(t *testing.T) {
	cfg := testConfig(t)
	r := New(cfg, nil, false, logger.Named("render"))

	ch, err := chapter.Lookup("small-worlds")
	require.NoError(t, err)

	watched := filepath.Join(t.TempDir(), "rethink.toml")
	require.NoError(t, os.WriteFile(watched, []byte("[sampler]\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, ch, []string{watched}) }()

	doc := filepath.Join(cfg.Paths.OutputDir, "small-worlds", "index.md")
	require.Eventually(t, func() bool {
		_, err := os.Stat(doc)
		return err == nil
	}, 10*time.Second, 50*time.Millisecond, "initial render should appear")

	before, err := os.Stat(doc)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(watched, []byte("[sampler]\nchains = 2\n"), 0o644))

	require.Eventually(t, func() bool {
		after, err := os.Stat(doc)
		return err == nil && after.ModTime().After(before.ModTime())
	}, 10*time.Second, 50*time.Millisecond, "change should trigger a re-render")

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchRequiresPaths(t *testing.T) {
	cfg := testConfig(t)
	r := New(cfg, nil, false, logger.Named("render"))
	ch, err := chapter.Lookup("small-worlds")
	require.NoError(t, err)

	err = r.Watch(context.Background(), ch, nil)
	assert.Error(t, err)
}

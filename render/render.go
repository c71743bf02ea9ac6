// Package render turns chapters into standalone markdown documents on disk,
// with their figures alongside, and can re-render on file changes.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rethink/chapter"
	"rethink/config"
	"rethink/errors"
	"rethink/figure"
	"rethink/fitcache"
)

// Renderer writes chapter documents under the configured output directory,
// one subdirectory per chapter.
type Renderer struct {
	cfg     *config.Config
	cache   *fitcache.Cache
	noCache bool
	log     *zap.SugaredLogger
}

// New builds a renderer. cache may be nil, in which case every render
// recomputes its fits.
func New(cfg *config.Config, cache *fitcache.Cache, noCache bool, log *zap.SugaredLogger) *Renderer {
	return &Renderer{cfg: cfg, cache: cache, noCache: noCache, log: log}
}

// Chapter renders one chapter and returns the path of the written document
func (r *Renderer) Chapter(ch *chapter.Chapter) (string, error) {
	dir := filepath.Join(r.cfg.Paths.OutputDir, ch.Name)
	workshop, err := figure.NewWorkshop(dir,
		r.cfg.Figures.WidthInches, r.cfg.Figures.HeightInches)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %d. %s\n\n%s.\n", ch.Number, ch.Title, ch.Synopsis)

	ctx := &chapter.Context{
		Out:     &buf,
		Figures: workshop,
		Cache:   r.cache,
		NoCache: r.noCache,
		Sampler: r.cfg.Sampler,
		Grid:    r.cfg.Grid,
		Log:     r.log,
	}
	if err := ch.Run(ctx); err != nil {
		return "", errors.Wrapf(err, "render chapter %s", ch.Name)
	}

	path := filepath.Join(dir, "index.md")
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	r.log.Infow("Rendered chapter", "chapter", ch.Name, "path", path)
	return path, nil
}

// All renders every registered chapter in book order
func (r *Renderer) All() ([]string, error) {
	var paths []string
	for _, ch := range chapter.All() {
		path, err := r.Chapter(ch)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeAtomic writes via a temp file and rename so a half-written document
// never replaces a good one.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".render-*")
	if err != nil {
		return errors.Wrap(err, "create temp document")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write document")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close document")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "replace %s", path)
}

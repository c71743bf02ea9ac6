// Package chapter holds the worked examples: each chapter loads a dataset,
// declares a model, fits it, and writes a narrative document with precis
// tables and figures. Chapters are independent; nothing carries over from
// one to the next except the reader's understanding.
package chapter

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"rethink/config"
	"rethink/errors"
	"rethink/figure"
	"rethink/fitcache"
	"rethink/infer"
	"rethink/model"
	"rethink/posterior"
)

// Chapter is one worked example
type Chapter struct {
	// Name is the stable slug used on the command line
	Name string
	// Number orders chapters as in the book
	Number int
	Title    string
	Synopsis string
	Run      func(ctx *Context) error
}

var registry = map[string]*Chapter{}

func register(ch *Chapter) {
	if _, dup := registry[ch.Name]; dup {
		panic("duplicate chapter " + ch.Name)
	}
	registry[ch.Name] = ch
}

// All returns every chapter in book order
func All() []*Chapter {
	out := make([]*Chapter, 0, len(registry))
	for _, ch := range registry {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Lookup finds a chapter by slug
func Lookup(name string) (*Chapter, error) {
	ch, ok := registry[name]
	if !ok {
		return nil, errors.WithHint(
			errors.NewNotFoundError("chapter %q", name),
			"run `rethink chapters` to list them")
	}
	return ch, nil
}

// Context carries everything a chapter needs to run. Out receives the
// narrative document as markdown; figures land in the workshop directory.
type Context struct {
	Out     io.Writer
	Figures *figure.Workshop
	// Cache may be nil; fits then always run
	Cache   *fitcache.Cache
	NoCache bool

	Sampler config.SamplerConfig
	Grid    config.GridConfig

	Log *zap.SugaredLogger
}

// Section writes a markdown heading
func (ctx *Context) Section(title string) {
	fmt.Fprintf(ctx.Out, "\n## %s\n\n", title)
}

// Para writes a narrative paragraph
func (ctx *Context) Para(format string, args ...interface{}) {
	fmt.Fprintf(ctx.Out, format+"\n\n", args...)
}

// Code writes a fenced block, used for model specifications and data heads
func (ctx *Context) Code(text string) {
	fmt.Fprintf(ctx.Out, "```\n%s\n```\n\n", trimTrailingNewlines(text))
}

// Precis writes a fenced precis table
func (ctx *Context) Precis(draws *posterior.Draws, prob float64) error {
	rows, err := draws.Precis(prob)
	if err != nil {
		return err
	}
	ctx.Code(posterior.FormatPrecis(rows, prob))
	return nil
}

// Figure writes a markdown image reference
func (ctx *Context) Figure(path, caption string) {
	fmt.Fprintf(ctx.Out, "![%s](%s)\n\n", caption, filepath.Base(path))
}

func trimTrailingNewlines(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}

// FitMCMC fits by MCMC, consulting the fit cache first
func (ctx *Context) FitMCMC(ds dataSource, m *model.Model, opts infer.MCMCOptions) (*posterior.Draws, error) {
	key := fitcache.Key{
		ModelSource: m.Source(),
		Dataset:     ds.name,
		DatasetHash: ds.hash,
		Engine:      "mcmc",
		Options: fmt.Sprintf("chains=%d iter=%d warmup=%d thin=%d step=%g",
			opts.Chains, opts.Iterations, opts.Warmup, opts.Thin, opts.StepScale),
		Seed: opts.Seed,
	}
	return ctx.fit(key, func() (*posterior.Draws, error) { return infer.MCMC(m, opts) })
}

// FitQuap fits the quadratic approximation, consulting the fit cache first
func (ctx *Context) FitQuap(ds dataSource, m *model.Model, opts infer.QuapOptions) (*posterior.Draws, error) {
	key := fitcache.Key{
		ModelSource: m.Source(),
		Dataset:     ds.name,
		DatasetHash: ds.hash,
		Engine:      "quap",
		Options:     fmt.Sprintf("draws=%d", opts.Draws),
		Seed:        opts.Seed,
	}
	return ctx.fit(key, func() (*posterior.Draws, error) { return infer.Quap(m, opts) })
}

// FitGrid fits by grid approximation, consulting the fit cache first
func (ctx *Context) FitGrid(ds dataSource, m *model.Model, opts infer.GridOptions) (*posterior.Draws, error) {
	key := fitcache.Key{
		ModelSource: m.Source(),
		Dataset:     ds.name,
		DatasetHash: ds.hash,
		Engine:      "grid",
		Options:     fmt.Sprintf("points=%d draws=%d", opts.Points, opts.Draws),
		Seed:        opts.Seed,
	}
	return ctx.fit(key, func() (*posterior.Draws, error) { return infer.Grid(m, opts) })
}

func (ctx *Context) fit(key fitcache.Key, run func() (*posterior.Draws, error)) (*posterior.Draws, error) {
	if ctx.Cache != nil && !ctx.NoCache {
		draws, err := ctx.Cache.Load(key)
		if err == nil {
			return draws, nil
		}
		if !errors.Is(err, errors.ErrCacheMiss) {
			return nil, err
		}
	}

	draws, err := run()
	if err != nil {
		return nil, err
	}

	if ctx.Cache != nil {
		if _, err := ctx.Cache.Store(key, draws); err != nil && ctx.Log != nil {
			ctx.Log.Warnw("Failed to cache fit", "error", err.Error())
		}
	}
	return draws, nil
}

// dataSource ties a fit to the exact bytes it was computed from
type dataSource struct {
	name string
	hash string
}

// Source builds a dataSource for a bundled dataset
func Source(name, hash string) dataSource {
	return dataSource{name: name, hash: hash}
}

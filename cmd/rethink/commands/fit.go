package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rethink/config"
	"rethink/dataset"
	"rethink/errors"
	"rethink/fitcache"
	"rethink/infer"
	"rethink/logger"
	"rethink/model"
	"rethink/posterior"
)

// FitCmd fits a user-supplied model file against a bundled dataset
var FitCmd = &cobra.Command{
	Use:   "fit <model-file>",
	Short: "Fit a model file against a bundled dataset",
	Long: `Fit a model specification file against one of the bundled datasets and
print the posterior precis.

The model file uses the same notation the chapters show:

  height ~ Normal(mu, sigma)
  mu <- a + b * weight
  a ~ Normal(178, 20)
  b ~ LogNormal(0, 1)
  sigma ~ Uniform(0, 50)

Examples:
  rethink fit height.model --data howell1
  rethink fit globe.model --data howell1 --engine grid
  rethink fit admit.model --data ucbadmit --engine mcmc --seed 99`,
	Args: cobra.ExactArgs(1),
	RunE: runFit,
}

var (
	fitDataFlag    string
	fitEngineFlag  string
	fitSeedFlag    uint64
	fitNoCacheFlag bool
	fitProbFlag    float64
)

func init() {
	FitCmd.Flags().StringVar(&fitDataFlag, "data", "", "Bundled dataset to fit against (required)")
	FitCmd.Flags().StringVar(&fitEngineFlag, "engine", "quap", "Inference engine: grid, quap, or mcmc")
	FitCmd.Flags().Uint64Var(&fitSeedFlag, "seed", 0, "Override the configured sampler seed")
	FitCmd.Flags().BoolVar(&fitNoCacheFlag, "no-cache", false, "Skip the fit cache and sample fresh")
	FitCmd.Flags().Float64Var(&fitProbFlag, "prob", 0.89, "Mass of the compatibility interval")
	_ = FitCmd.MarkFlagRequired("data")
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	seed := cfg.Sampler.Seed
	if fitSeedFlag != 0 {
		seed = fitSeedFlag
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "read model file %s", args[0])
	}
	spec, err := model.Parse(string(raw))
	if err != nil {
		return err
	}

	tbl, err := dataset.Load(fitDataFlag)
	if err != nil {
		return err
	}
	hash, err := dataset.Hash(fitDataFlag)
	if err != nil {
		return err
	}
	m, err := model.Compile(spec, tbl)
	if err != nil {
		return err
	}

	key := fitcache.Key{
		ModelSource: m.Source(),
		Dataset:     fitDataFlag,
		DatasetHash: hash,
		Engine:      fitEngineFlag,
		Seed:        seed,
	}

	var run func() (*posterior.Draws, error)
	switch fitEngineFlag {
	case "grid":
		key.Options = fmt.Sprintf("points=%d draws=%d", cfg.Grid.Points, cfg.Grid.Draws)
		run = func() (*posterior.Draws, error) {
			return infer.Grid(m, infer.GridOptions{
				Points: cfg.Grid.Points, Draws: cfg.Grid.Draws, Seed: seed,
			})
		}
	case "quap":
		key.Options = fmt.Sprintf("draws=%d", cfg.Grid.Draws)
		run = func() (*posterior.Draws, error) {
			return infer.Quap(m, infer.QuapOptions{Draws: cfg.Grid.Draws, Seed: seed})
		}
	case "mcmc":
		s := cfg.Sampler
		key.Options = fmt.Sprintf("chains=%d iter=%d warmup=%d thin=%d step=%g",
			s.Chains, s.Iterations, s.Warmup, s.Thin, s.StepScale)
		run = func() (*posterior.Draws, error) {
			return infer.MCMC(m, infer.MCMCOptions{
				Chains:     s.Chains,
				Iterations: s.Iterations,
				Warmup:     s.Warmup,
				Thin:       s.Thin,
				StepScale:  s.StepScale,
				Seed:       seed,
			})
		}
	default:
		return errors.WithHint(
			errors.Newf("unknown engine %q", fitEngineFlag),
			"valid engines are grid, quap, and mcmc")
	}

	log := logger.Named("fit")
	draws, err := fitThroughCache(cfg, key, run, log)
	if err != nil {
		return err
	}

	rows, err := draws.Precis(fitProbFlag)
	if err != nil {
		return err
	}
	return posterior.RenderPrecis(cmd.OutOrStdout(), rows, fitProbFlag)
}

func fitThroughCache(cfg *config.Config, key fitcache.Key, run func() (*posterior.Draws, error), log *zap.SugaredLogger) (*posterior.Draws, error) {
	cache, err := fitcache.Open(cfg.Paths.Cache, logger.Named("fitcache"))
	if err != nil {
		log.Warnw("Fit cache unavailable, sampling fresh", "error", err.Error())
		return run()
	}
	defer cache.Close()

	if !fitNoCacheFlag {
		if draws, err := cache.Load(key); err == nil {
			return draws, nil
		} else if !errors.Is(err, errors.ErrCacheMiss) {
			return nil, err
		}
	}

	draws, err := run()
	if err != nil {
		return nil, err
	}
	if _, err := cache.Store(key, draws); err != nil {
		log.Warnw("Failed to cache fit", "error", err.Error())
	}
	return draws, nil
}

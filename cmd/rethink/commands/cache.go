package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"rethink/config"
	"rethink/errors"
	"rethink/fitcache"
	"rethink/logger"
)

// CacheCmd manages the fit cache
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fit cache",
	Long: `Manage the sqlite cache of posterior fits.

A fit is keyed by model source, dataset content hash, engine, options, and
seed; any change to those re-samples. Clearing the cache is always safe,
it only costs compute on the next run.

Examples:
  rethink cache stats
  rethink cache clear`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show fit-cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached fit",
	RunE:  runCacheClear,
}

func init() {
	CacheCmd.AddCommand(cacheStatsCmd)
	CacheCmd.AddCommand(cacheClearCmd)
}

func openCache() (*fitcache.Cache, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}
	cache, err := fitcache.Open(cfg.Paths.Cache, logger.Named("fitcache"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open fit cache %s", cfg.Paths.Cache)
	}
	return cache, cfg, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cache, cfg, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	stats, err := cache.Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache:    %s\n", cfg.Paths.Cache)
	fmt.Fprintf(out, "Fits:     %d\n", stats.Fits)
	fmt.Fprintf(out, "Datasets: %d\n", stats.Datasets)
	fmt.Fprintf(out, "Draws:    %s\n\n", humanBytes(stats.Bytes))

	if len(stats.ByEngine) == 0 {
		return nil
	}
	rows := pterm.TableData{{"Engine", "Fits"}}
	for _, engine := range []string{"grid", "quap", "mcmc"} {
		if n, ok := stats.ByEngine[engine]; ok {
			rows = append(rows, []string{engine, fmt.Sprintf("%d", n)})
		}
	}
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rendered)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cache, _, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	n, err := cache.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached fits\n", n)
	return nil
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rethink/chapter"
	"rethink/config"
	"rethink/errors"
	"rethink/fitcache"
	"rethink/logger"
	"rethink/render"
)

// RenderCmd writes chapter documents to the output directory
var RenderCmd = &cobra.Command{
	Use:   "render [chapter]",
	Short: "Write a chapter's markdown document to disk",
	Long: `Render a chapter (or all chapters with --all) into the output
directory as markdown, figures alongside.

With --watch the command keeps running and re-renders whenever the project
config file changes. Stop with Ctrl-C.

Examples:
  rethink render geocentric
  rethink render --all
  rethink render small-worlds --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var (
	renderAllFlag     bool
	renderWatchFlag   bool
	renderNoCacheFlag bool
)

func init() {
	RenderCmd.Flags().BoolVar(&renderAllFlag, "all", false, "Render every chapter")
	RenderCmd.Flags().BoolVar(&renderWatchFlag, "watch", false, "Re-render when the config file changes")
	RenderCmd.Flags().BoolVar(&renderNoCacheFlag, "no-cache", false, "Skip the fit cache and sample fresh")
}

func runRender(cmd *cobra.Command, args []string) error {
	if !renderAllFlag && len(args) == 0 {
		return errors.WithHint(
			errors.Newf("no chapter named"),
			"name a chapter or pass --all")
	}
	if renderAllFlag && renderWatchFlag {
		return errors.Newf("--all and --watch do not combine")
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	log := logger.Named("render")
	cache, err := fitcache.Open(cfg.Paths.Cache, logger.Named("fitcache"))
	if err != nil {
		log.Warnw("Fit cache unavailable, sampling fresh", "error", err.Error())
		cache = nil
	} else {
		defer cache.Close()
	}

	r := render.New(cfg, cache, renderNoCacheFlag, log)

	if renderAllFlag {
		paths, err := r.All()
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return err
	}

	ch, err := chapter.Lookup(args[0])
	if err != nil {
		return err
	}

	if !renderWatchFlag {
		path, err := r.Chapter(ch)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	}

	var watched []string
	if p := config.FilePath(); p != "" {
		watched = append(watched, p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = r.Watch(ctx, ch, watched)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

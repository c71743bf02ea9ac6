package render

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"rethink/chapter"
	"rethink/errors"
)

// debounce absorbs editor save bursts before re-rendering
const debounce = 300 * time.Millisecond

// Watch renders the chapter once, then re-renders whenever one of the watched
// paths changes, until ctx is cancelled. Paths are typically the config file.
func (r *Renderer) Watch(ctx context.Context, ch *chapter.Chapter, paths []string) error {
	if len(paths) == 0 {
		return errors.WithHint(
			errors.Newf("nothing to watch"),
			"watch mode follows the config file; create a rethink.toml first")
	}

	if _, err := r.Chapter(ch); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "start watcher")
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			return errors.Wrapf(err, "watch %s", p)
		}
	}
	r.log.Infow("Watching for changes", "paths", paths, "chapter", ch.Name)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.log.Debugw("Change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
			// Editors often replace files by rename; re-add to keep following
			// the path rather than the old inode.
			if event.Op&(fsnotify.Rename|fsnotify.Create) != 0 {
				_ = watcher.Add(event.Name)
			}

		case <-fire:
			timer = nil
			fire = nil
			if _, err := r.Chapter(ch); err != nil {
				r.log.Errorw("Re-render failed", "chapter", ch.Name, "error", err.Error())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warnw("Watcher error", "error", err.Error())
		}
	}
}

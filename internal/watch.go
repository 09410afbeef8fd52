package internal

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce groups editor save bursts into one recompilation.
const watchDebounce = 500 * time.Millisecond

// CompileWatch compiles once, then recompiles whenever either proposal
// input file changes, until ctx is cancelled. A failed recompilation is
// logged and the watch continues.
func CompileWatch(ctx context.Context, pointingPath, definitionPath string, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}

	if err := app.compileOnce(ctx, pointingPath, definitionPath); err != nil {
		return err
	}
	return app.watch(ctx, pointingPath, definitionPath)
}

func (a *application) watch(ctx context.Context, pointingPath, definitionPath string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]bool, 2)
	dirs := make(map[string]bool, 2)
	for _, p := range []string{pointingPath, definitionPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Watch the parent directories: editors replace files via rename, which
	// silently drops a watch held on the file itself.
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	a.logger.Info("watching proposal files",
		slog.String("pointing", pointingPath),
		slog.String("definition", definitionPath))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			a.logger.Info("watch stopped")
			return nil

		case <-timerCh:
			if err := a.compileOnce(ctx, pointingPath, definitionPath); err != nil {
				a.logger.Error("recompilation failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, absErr := filepath.Abs(ev.Name)
			if absErr != nil || !watched[abs] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			a.logger.Debug("proposal file changed",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

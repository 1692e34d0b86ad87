package analyzecmder

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/crewlog/pkg/pipeline"
)

func (c *analyzeCommander) runWatch(ctx context.Context, out io.Writer, analyzer *pipeline.Analyzer, path string) error {
	if err := c.analyze(ctx, out, analyzer, []string{path}); err != nil {
		return err
	}

	c.logger.Info("watching log for changes", "path", path)

	return watchFile(ctx, path, watchDebounce, func(ctx context.Context) error {
		c.logger.Debug("log changed, analyzing again", "path", path)
		return c.analyze(ctx, out, analyzer, []string{path})
	})
}

// watchFile calls onChange after writes to path have been quiet for delay. It
// watches the parent directory so editors that replace the file are still
// seen. It returns nil when ctx is done.
func watchFile(ctx context.Context, path string, delay time.Duration, onChange func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating log watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching log dir: %w", err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher error: %w", err)
		}
	}
}

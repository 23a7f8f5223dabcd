package mockserver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/kbukum/netclient/logger"
)

// reloadDebounce coalesces the burst of events an editor save produces.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the route table whenever the route file at path changes,
// until ctx is done. The parent directory is watched so that files
// replaced by rename keep being tracked. A route file that fails to
// parse is logged and the current table is kept.
func (s *Server) Watch(ctx context.Context, fs afero.Fs, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("mock: watch: %w", err)
	}
	file := filepath.Clean(path)
	if err := w.Add(filepath.Dir(file)); err != nil {
		_ = w.Close()
		return fmt.Errorf("mock: watch %s: %w", path, err)
	}

	go func() {
		defer w.Close()
		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != file || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				s.reloadFrom(fs, path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("route watcher error", logger.Fields(logger.FieldError, err.Error()))
			}
		}
	}()
	return nil
}

func (s *Server) reloadFrom(fs afero.Fs, path string) {
	routes, err := LoadRoutes(fs, path)
	if err == nil {
		err = s.Reload(routes)
	}
	if err != nil {
		s.log.Warn("route reload failed, keeping current routes",
			logger.Fields("file", path, logger.FieldError, err.Error()))
	}
}

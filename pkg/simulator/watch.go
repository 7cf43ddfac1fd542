package simulator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/layout/bbm"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 200 * time.Millisecond

// LoadLayoutFile reads a layout from path. Files ending in .bbm are parsed
// as BlueBrick layouts, everything else as layout JSON.
func LoadLayoutFile(path string) (*layout.Layout, error) {
	if strings.EqualFold(filepath.Ext(path), ".bbm") {
		return bbm.Import(path)
	}
	return layout.ImportJSON(path)
}

// Watch reloads the layout from path whenever the file changes, until ctx
// is done. A file that fails to parse is logged and the previous layout
// stays in service.
//
// The parent directory is watched rather than the file so that editors
// which save by renaming a temp file are seen.
func (s *Server) Watch(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	s.logger.Info("watching layout", "path", path)

	timer := time.NewTimer(reloadDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(reloadDelay)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("layout watcher", "err", err)

		case <-timer.C:
			l, err := LoadLayoutFile(path)
			if err != nil {
				s.logger.Warn("layout reload failed", "path", path, "err", err)
				continue
			}
			s.SetLayout(l)
		}
	}
}

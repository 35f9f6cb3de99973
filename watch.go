package coloring

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce groups the bursts of events an editor emits while saving a file.
const watchDebounce = 150 * time.Millisecond

// WatchLineArt reloads the line art of the selected artwork each time its
// image file inside dir is written or recreated. It blocks until ctx is done.
func WatchLineArt(ctx context.Context, s *Session, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not start the file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			id := s.Artwork()
			if id == "" || filepath.Clean(ev.Name) != filepath.Join(dir, filepath.FromSlash(id)) {
				continue
			}
			reload = time.After(watchDebounce)
		case <-reload:
			reload = nil
			s.ReloadLineArt(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("file watcher error", "dir", dir, "error", err)
		}
	}
}

// ABOUTME: Watches the on-disk session record for changes made by other processes
// ABOUTME: Reloads the store so a TUI notices a logout run in another terminal

package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch starts watching the session file when the store is file-backed.
// Other storages have no change feed and Watch returns nil without doing
// anything. The watch stops when ctx is done or the store is closed.
func (s *Store) Watch(ctx context.Context) error {
	fs, ok := s.storage.(*FileStorage)
	if !ok {
		return nil
	}

	if err := os.MkdirAll(fs.Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: writes replace the file via rename
	if err := fsw.Add(fs.Dir()); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", fs.Dir(), err)
	}

	ctx, cancel := context.WithCancel(ctx)

	s.watchMu.Lock()
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.stopWatch = cancel
	s.watchMu.Unlock()

	target := filepath.Clean(fs.Path(s.key))
	go s.processEvents(ctx, fsw, target)

	s.logger.Debug("Watching session file", "path", target)
	return nil
}

// processEvents debounces file events and reloads the store
func (s *Store) processEvents(ctx context.Context, fsw *fsnotify.Watcher, target string) {
	defer fsw.Close()

	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = true
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Session watcher error", "error", err)

		case <-ticker.C:
			if pending {
				pending = false
				s.Reload()
			}
		}
	}
}

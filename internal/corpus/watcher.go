package corpus

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/agora-labs/agora-cli/internal/logger"
)

// Watcher invalidates the snapshot cache when the on-disk index root
// changes outside this process (another agora invocation, a manual
// cleanup). In-process mutations invalidate the cache directly; the
// watcher is a safety net for long-running sessions.
type Watcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching the index root directory.
func NewWatcher(cache *Cache, root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	w := &Watcher{cache: cache, watcher: fw, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				logger.Debug("Index root changed (%s), invalidating corpus cache", ev.Op)
				w.cache.InvalidateAll()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Index watcher error: %v", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

package input

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// notifier wakes the follow loop early when the watched file's directory
// changes, so appends and rotations are noticed before the backoff timer
// fires. The directory is watched rather than the file itself because a
// rotation replaces the file and would silently drop a file-level watch.
// It is strictly an optimization: the poll loop is correct without it.
type notifier struct {
	watcher *fsnotify.Watcher
}

// newNotifier returns nil when a watcher cannot be set up; the caller
// falls back to plain sleeping.
func newNotifier(path string) *notifier {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil
	}
	return &notifier{watcher: w}
}

// Wait blocks until a filesystem event arrives, the timeout elapses, or
// the context is cancelled, whichever comes first.
func (n *notifier) Wait(ctx context.Context, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-n.watcher.Events:
	case <-n.watcher.Errors:
	}
}

func (n *notifier) Close() {
	n.watcher.Close()
}

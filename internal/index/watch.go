package index

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 250 * time.Millisecond

// Watch starts an fsnotify watcher on the index's root directory and
// debounces filesystem events into a single Refresh: a burst of writes
// from one import (temp file create, several writes, rename) collapses
// into one rescan instead of one per event. Watch returns once the
// watcher is established; it runs until ctx is cancelled or Close is
// called.
func (ix *Index) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(ix.root); err != nil {
		w.Close()
		return err
	}

	stopCh := make(chan struct{})
	ix.stopWatch = func() {
		select {
		case <-stopCh:
		default:
			close(stopCh)
		}
		w.Close()
	}

	go ix.watchLoop(ctx, w, stopCh)
	return nil
}

func (ix *Index) watchLoop(ctx context.Context, w *fsnotify.Watcher, stopCh chan struct{}) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case _, ok := <-w.Events:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			ix.Refresh(ctx)
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

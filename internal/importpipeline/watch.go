package importpipeline

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay is how long a path must go quiet before FolderWatcher
// hands it off, so a file still being written isn't imported mid-copy.
const settleDelay = 2 * time.Second

// FolderWatcher backs a "watch this folder" import source: it watches a
// set of directories and calls onSettled once per file once its last
// create/write event is settleDelay old, per spec.md §4.E's scan phase
// extended to a standing watch rather than a one-shot directory walk.
type FolderWatcher struct {
	log       *zap.Logger
	fsw       *fsnotify.Watcher
	onSettled func(path string)
}

// NewFolderWatcher builds a FolderWatcher. Call Add for each directory
// to watch before Run.
func NewFolderWatcher(log *zap.Logger, onSettled func(path string)) (*FolderWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FolderWatcher{log: log, fsw: fsw, onSettled: onSettled}, nil
}

// Add registers a directory to watch.
func (w *FolderWatcher) Add(dir string) error {
	return w.fsw.Add(dir)
}

// Run drains filesystem events until ctx is cancelled, matching the
// teacher's ticker-driven chore idiom for long-lived supervised loops.
func (w *FolderWatcher) Run(ctx context.Context) error {
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path := ev.Name
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(settleDelay, func() { w.onSettled(path) })

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("folder watch error", zap.Error(err))
		}
	}
}

// Close releases the underlying inotify/kqueue handle.
func (w *FolderWatcher) Close() error {
	return w.fsw.Close()
}

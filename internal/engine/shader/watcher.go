package shader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/logger"
)

// DefaultDebounce is how long the watcher waits for further writes before
// reporting a batch of changed files.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports shader files changed on disk.
type Watcher struct {
	fs       *fsnotify.Watcher
	changes  chan []string
	debounce time.Duration
	log      *zap.Logger
}

// NewWatcher watches the given directories.
func NewWatcher(dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating shader watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return &Watcher{
		fs:       fw,
		changes:  make(chan []string, 1),
		debounce: DefaultDebounce,
		log:      logger.Named("shader.watcher"),
	}, nil
}

// Changes delivers the base names of changed shader files. A batch that is not
// consumed before the next one is merged into it.
func (w *Watcher) Changes() <-chan []string { return w.changes }

// Run processes file system events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if _, err := StageOf(name); err != nil {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]struct{})
		}
	}
}

func (w *Watcher) flush(pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}
	// merge with an unconsumed batch
	select {
	case prev := <-w.changes:
		for _, name := range prev {
			pending[name] = struct{}{}
		}
	default:
	}

	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)
	w.log.Info("shader files changed", zap.Strings("files", names))
	w.changes <- names
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

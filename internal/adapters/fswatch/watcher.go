// Package fswatch implements ports.FileWatcher with fsnotify.
package fswatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/slprescale/internal/ports"
	"github.com/bft-labs/slprescale/pkg/log"
)

// DefaultSettleDelay is how long a file must stay unchanged before it is
// reported. Copies of large videos produce a stream of write events.
const DefaultSettleDelay = 2 * time.Second

// Watcher reports settled files under a directory tree.
type Watcher struct {
	settle time.Duration
	logger ports.Logger
}

// New creates a Watcher. A non-positive settle delay selects the default.
func New(settle time.Duration, logger ports.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	logger = log.OrNoop(logger)
	return &Watcher{settle: settle, logger: logger}
}

// Watch blocks until ctx is done. Directories created under root are
// watched as they appear.
func (w *Watcher) Watch(ctx context.Context, root string, fn func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, root); err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		ready   = make(chan string, 16)
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	touch := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(w.settle)
			return
		}
		pending[path] = time.AfterFunc(w.settle, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-ready:
			fn(path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Op&fsnotify.Create != 0 {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.logger.Warn("watch directory failed", log.String("path", event.Name), log.Err(err))
					}
				}
				continue
			}
			touch(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.logger.Debug("watching directory", log.String("path", path))
		return nil
	})
}

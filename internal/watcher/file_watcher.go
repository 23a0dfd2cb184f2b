// Package watcher turns file system notifications under a project root into
// debounced batches of changed source files.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a file watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// fileWatcher implements FileWatcher interface.
type fileWatcher struct {
	watcher       *fsnotify.Watcher
	root          string
	filter        Filter
	logger        *slog.Logger
	debounceTime  time.Duration        // Quiet period before firing callback
	callback      func(files []string) // Callback to invoke with changed files
	ctx           context.Context      // Context for lifecycle management
	cancel        context.CancelFunc   // Cancel function for internal context
	accumulated   map[string]bool      // Accumulated file changes
	accumulatedMu sync.Mutex           // Protects accumulated map
	debounceTimer *time.Timer          // Current debounce timer
	timerMu       sync.Mutex           // Protects debounce timer
	stopOnce      sync.Once            // Ensures Stop() is idempotent
	doneCh        chan struct{}        // Signals watch goroutine has finished
}

// NewFileWatcher creates a watcher over root and every directory below it
// that the filter does not ignore.
func NewFileWatcher(root string, filter Filter, opts Options) (FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		watcher:      watcher,
		root:         root,
		filter:       filter,
		logger:       opts.Logger,
		debounceTime: opts.Debounce,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}
	if fw.debounceTime <= 0 {
		fw.debounceTime = DefaultDebounce
	}
	if fw.logger == nil {
		fw.logger = slog.Default()
	}

	if err := fw.addDirectoriesRecursively(root); err != nil {
		watcher.Close()
		return nil, err
	}

	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			// Wait for goroutine to finish (only if Start() was called)
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}

		err = fw.watcher.Close()
	})
	return err
}

// watch is the main event loop.
func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	flushCh := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories are watched as soon as they appear
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !fw.filter.Ignored(event.Name) {
						if err := fw.addDirectoriesRecursively(event.Name); err != nil {
							fw.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(flushCh)

		case <-flushCh:
			fw.handleDebounceExpired()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)
		}
	}
}

// handleDebounceExpired fires the callback with the accumulated files in
// lexical order.
func (fw *fileWatcher) handleDebounceExpired() {
	fw.accumulatedMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulatedMu.Unlock()
		return
	}

	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulatedMu.Unlock()

	sort.Strings(files)
	if fw.callback != nil {
		fw.callback(files)
	}
}

// resetDebounceTimer resets the debounce timer, properly stopping the old one.
func (fw *fileWatcher) resetDebounceTimer(flushCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

// stopDebounceTimer stops the debounce timer if it exists.
func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// shouldProcessEvent keeps writes, creations, removals and renames of files
// the filter matches.
func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return fw.filter.Match(event.Name)
}

// addDirectoriesRecursively adds all non-ignored directories in the tree to
// the watcher.
func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// If it's the root path, fail immediately
			if path == rootPath {
				return err
			}
			fw.logger.Warn("error accessing path", "path", path, "error", err)
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if path != fw.root && fw.filter.Ignored(path) {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

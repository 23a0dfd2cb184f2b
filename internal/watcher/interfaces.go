package watcher

import "context"

// FileWatcher monitors source files for changes with debouncing.
type FileWatcher interface {
	// Start begins watching the root, calling callback with each debounced
	// batch of changed files. The callback runs on the watch goroutine, so
	// the next batch is not delivered until it returns.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error
}

// Filter decides which paths the watcher reports and which directories it
// watches. discovery.FileDiscovery satisfies it.
type Filter interface {
	// Match reports whether a file change should be reported.
	Match(path string) bool

	// Ignored reports whether a directory should not be watched.
	Ignored(path string) bool
}

// Package watcher follows a dataset's annotations directory and emits
// episode annotation files as they land.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the annotations directory and emits new annotation file
// paths. Files already ingested are skipped by name.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	paths   chan string
	mu      sync.Mutex
	seen    map[string]struct{}
}

func New(dir string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:     dir,
		watcher: watcher,
		paths:   make(chan string, 256),
		seen:    make(map[string]struct{}),
	}, nil
}

// Paths returns the channel of annotation files to ingest.
func (w *Watcher) Paths() <-chan string {
	return w.paths
}

// Start watches the directory until ctx is done. Annotation files present
// when the watch begins are emitted first, in directory order.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	if err := w.readExisting(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			close(w.paths)
			return nil
		case err := <-w.watcher.Errors:
			if err != nil {
				return err
			}
		case event := <-w.watcher.Events:
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.emit(ctx, event.Name)
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) readExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.emit(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// emit sends path to the consumer unless the watch is shutting down. The
// send must not block past ctx: with a full channel and a departed consumer
// it would otherwise pin the Start goroutine forever.
func (w *Watcher) emit(ctx context.Context, path string) {
	if !IsAnnotationFile(path) {
		return
	}

	w.mu.Lock()
	if _, ok := w.seen[path]; ok {
		w.mu.Unlock()
		return
	}
	w.seen[path] = struct{}{}
	w.mu.Unlock()

	select {
	case w.paths <- path:
	case <-ctx.Done():
	}
}

// IsAnnotationFile reports whether a path looks like an episode annotation
// file.
func IsAnnotationFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

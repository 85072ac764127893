// Package filesystem discovers source PDF documents on local disk and
// watches the input tree for changes.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.DocumentFinder = (*Connector)(nil)

// Connector finds PDF documents under a root directory.
// It implements the DocumentFinder interface and can additionally watch
// the tree for changes.
type Connector struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a filesystem connector.
func New() *Connector {
	return &Connector{}
}

// Find walks the root directory recursively and returns the absolute
// paths of all PDF files, sorted. Hidden directories are skipped.
// Results are sorted so batch processing order is stable across runs.
func (c *Connector) Find(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal; the documents
			// we can read still get processed.
			logger.Warn("Skipping unreadable path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isPDF(name) {
			abs, absErr := filepath.Abs(path)
			if absErr != nil {
				abs = path
			}
			paths = append(paths, abs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Watch emits the path of every PDF created, modified, renamed or
// removed under root. Subdirectories created while watching are added
// to the watch set. The channel closes when ctx is cancelled.
func (c *Connector) Watch(ctx context.Context, root string) (<-chan string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("connector is closed")
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch every existing directory; fsnotify is not recursive.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && (path == root || !strings.HasPrefix(d.Name(), ".")) {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}

	c.watcher = watcher
	changes := make(chan string)

	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Create) {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						if addErr := watcher.Add(event.Name); addErr != nil {
							logger.Warn("Cannot watch new directory %s: %v", event.Name, addErr)
						}
						continue
					}
				}
				if !isPDF(event.Name) || event.Op == fsnotify.Chmod {
					continue
				}
				select {
				case changes <- event.Name:
				case <-ctx.Done():
					return
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watch error: %v", watchErr)
			}
		}
	}()

	return changes, nil
}

// Close stops watching. It is safe to call multiple times.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// isPDF reports whether a filename has a .pdf extension, case-insensitive.
func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

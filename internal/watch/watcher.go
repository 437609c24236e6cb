// Package watch recursively monitors a project directory and reports
// changed source files. Editors often fire several events per save, so
// callers should pair the watcher with a Debouncer before triggering
// analysis.
package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Directories never worth watching.
var ignoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".venv":        true,
	"__pycache__":  true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
	".devplanet":   true,
}

// Source extensions that trigger analysis.
var codeExts = map[string]bool{
	".go":   true,
	".js":   true,
	".jsx":  true,
	".mjs":  true,
	".cjs":  true,
	".ts":   true,
	".tsx":  true,
	".py":   true,
	".rb":   true,
	".rs":   true,
	".java": true,
	".c":    true,
	".cc":   true,
	".cpp":  true,
	".h":    true,
	".cs":   true,
	".php":  true,
	".html": true,
	".css":  true,
}

// Watcher monitors a directory tree for source file changes.
type Watcher struct {
	fw     *fsnotify.Watcher
	logger *slog.Logger

	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// New creates a watcher. Call Watch to start it and Stop to release.
func New(logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:     fw,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Watch starts monitoring root recursively. onChange receives the
// absolute path of each changed source file. Directories created
// later are picked up automatically.
func (w *Watcher) Watch(root string, onChange func(path string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if ignoreDirs[info.Name()] && path != absRoot {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.loop(onChange)

	w.logger.Info("Watching for changes", "root", absRoot)
	return nil
}

func (w *Watcher) loop(onChange func(path string)) {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			path := event.Name

			// New directories join the watch list.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if !ignoreDirs[info.Name()] {
						_ = w.fw.Add(path)
					}
					continue
				}
			}

			if !isSourceFile(path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				onChange(path)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop ends monitoring and releases all resources. Safe to call more
// than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// isSourceFile reports whether a path should trigger analysis.
func isSourceFile(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if ignoreDirs[part] {
			return false
		}
	}
	return codeExts[strings.ToLower(filepath.Ext(path))]
}

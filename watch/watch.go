// Package watch reloads the game index when metadata files change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gamelib/db"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader rebuilds in-memory state from disk and returns the game count.
type Reloader interface {
	ReloadGames() int
}

// ownWriteChecker is implemented by reloaders that can tell their own saves
// apart from external edits.
type ownWriteChecker interface {
	IsOwnWrite(path string) bool
}

// Watcher debounces file events under the metadata directory into reloads.
type Watcher struct {
	fsw      *fsnotify.Watcher
	layout   db.Layout
	reloader Reloader
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	// OnReload, when set, is called after every reload with the new game count.
	OnReload func(count int)
}

// New watches the metadata directory and, when present, its libraries directory.
func New(layout db.Layout, reloader Reloader, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, layout: layout, reloader: reloader, debounce: debounce}

	if err := fsw.Add(layout.MetadataDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", layout.MetadataDir, err)
	}
	if info, err := os.Stat(layout.LibrariesDir()); err == nil && info.IsDir() {
		if err := fsw.Add(layout.LibrariesDir()); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", layout.LibrariesDir(), err)
		}
	}
	return w, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	zap.S().Infow("Watching metadata for changes", "dir", w.layout.MetadataDir, "debounce", w.debounce.String())
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			zap.S().Warnw("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Name == w.layout.LibrariesDir() && event.Has(fsnotify.Create) {
		if err := w.fsw.Add(event.Name); err != nil {
			zap.S().Warnw("Failed to watch new libraries directory", "error", err)
		}
		w.schedule()
		return
	}
	if !w.relevant(event.Name) {
		return
	}
	if checker, ok := w.reloader.(ownWriteChecker); ok && checker.IsOwnWrite(event.Name) {
		zap.S().Debugw("Ignoring change written by the store", "path", event.Name)
		return
	}
	zap.S().Debugw("Metadata file changed", "path", event.Name, "op", event.Op.String())
	w.schedule()
}

// relevant reports whether path is a library file or the collections file.
// Temporary and backup files written by the store are ignored.
func (w *Watcher) relevant(path string) bool {
	if filepath.Ext(path) != ".json" {
		return false
	}
	if path == w.layout.CollectionsFile() {
		return true
	}
	return filepath.Dir(path) == w.layout.LibrariesDir() && !strings.HasPrefix(filepath.Base(path), ".")
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	count := w.reloader.ReloadGames()
	zap.S().Infow("Reloaded metadata after file change", "games", count)
	if w.OnReload != nil {
		w.OnReload(count)
	}
}

// Close stops the watcher and any pending reload.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsw.Close()
}

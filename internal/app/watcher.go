package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	lcimage "layercanvas/internal/image"

	"github.com/fsnotify/fsnotify"
)

// FolderWatcher reports image files that appear in a directory. Writers
// often create a file and fill it in several steps, so a path is reported
// only after it has been quiet for the settle delay. Each path is reported
// once; later writes are ignored until it is removed or renamed away.
type FolderWatcher struct {
	dir     string
	settle  time.Duration
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    sync.WaitGroup
	onImage func(path string) // Called when a new image is ready
}

// NewFolderWatcher creates a watcher for dir. It does not start watching
// until Start is called.
func NewFolderWatcher(dir string, settle time.Duration, logger *slog.Logger) (*FolderWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", dir)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FolderWatcher{dir: dir, settle: settle, logger: logger}, nil
}

// OnImage sets the callback for new images. The callback is called from a
// background goroutine; hand the path to the UI thread before touching a
// Session.
func (w *FolderWatcher) OnImage(callback func(path string)) {
	w.onImage = callback
}

// Dir returns the watched directory.
func (w *FolderWatcher) Dir() string {
	return w.dir
}

// Start begins watching in a background goroutine.
func (w *FolderWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.done.Add(1)
	go w.watchLoop()
	w.logger.Info("watching folder", "dir", w.dir)
	return nil
}

// Stop stops the watcher goroutine and waits for it to exit.
func (w *FolderWatcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.stopCh)
	w.done.Wait()
	w.watcher.Close()
	w.watcher = nil
}

func (w *FolderWatcher) watchLoop() {
	defer w.done.Done()

	pending := make(map[string]time.Time)
	reported := make(map[string]bool)
	ticker := time.NewTicker(max(w.settle/2, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				delete(pending, ev.Name)
				delete(reported, ev.Name)
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if reported[ev.Name] || !lcimage.IsSupportedFormat(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "dir", w.dir, "err", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				if w.report(path) {
					reported[path] = true
				}
			}
		}
	}
}

// report hands a settled path to the callback. Empty files are left for a
// later write.
func (w *FolderWatcher) report(path string) bool {
	if info, err := os.Stat(path); err != nil || info.IsDir() || info.Size() == 0 {
		return false
	}
	w.logger.Info("new image", "path", filepath.Base(path))
	if w.onImage != nil {
		w.onImage(path)
	}
	return true
}

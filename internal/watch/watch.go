// Package watch reports changes to local model files so the viewer can
// reload them.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/terraview/internal/assets"
	"github.com/Faultbox/terraview/internal/logger"
)

// DefaultDebounce collapses the burst of events an editor or exporter
// produces when saving.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches a set of files and emits one change after each burst of
// writes to any of them.
//
// Parent directories are watched rather than the files, so files replaced
// by rename (as most editors save) keep being tracked.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	changes  chan string

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]int
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher and starts its event loop.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fs:       fsw,
		debounce: debounce,
		changes:  make(chan string, 1),
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers the path of the last file changed in each burst. A
// change not yet received is replaced by the next one.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Watch adds files to the watched set.
func (w *Watcher) Watch(files ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}
		if w.files[abs] {
			continue
		}

		dir := filepath.Dir(abs)
		if w.dirs[dir] == 0 {
			if err := w.fs.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
		w.dirs[dir]++
		w.files[abs] = true
		logger.Debug("watching file", zap.String("path", abs))
	}
	return nil
}

// RemoveAll stops watching every file.
func (w *Watcher) RemoveAll() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for dir := range w.dirs {
		if err := w.fs.Remove(dir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.files = make(map[string]bool)
	w.dirs = make(map[string]int)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	return firstErr
}

// Close stops the watcher. Changes is not closed.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.handle(filepath.Clean(event.Name))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// handle restarts the debounce timer for a change to path.
func (w *Watcher) handle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[path] {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.emit(path)
	})
}

func (w *Watcher) emit(path string) {
	logger.Info("file changed", zap.String("path", path))
	for {
		select {
		case w.changes <- path:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}

// LocalFiles returns the local file paths among urls. Remote URLs and empty
// strings are skipped.
func LocalFiles(urls ...string) []string {
	var out []string
	for _, u := range urls {
		if u == "" {
			continue
		}
		if p, ok := assets.LocalPath(u); ok {
			out = append(out, p)
		}
	}
	return out
}

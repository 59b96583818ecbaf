package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches the burst of events a download or unzip produces
// into a single rescan of the affected directory.
const debounceWindow = 2 * time.Second

// Watcher follows filesystem events under the library root and triggers
// incremental rescans of changed set directories.
type Watcher struct {
	scanner  *Scanner
	logger   *slog.Logger
	rootPath string

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher over the library root. Call Start to begin
// receiving events.
func NewWatcher(scanner *Scanner, rootPath string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		scanner:  scanner,
		logger:   logger,
		rootPath: rootPath,
		fsw:      fsw,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Start registers the library tree and begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.rootPath); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("library watcher started", "root", w.rootPath)
	return nil
}

// Close stops the watcher and waits for the event loop to drain.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = map[string]*time.Timer{}
	w.mu.Unlock()

	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	// New directories join the watch so charts dropped into them later
	// are seen.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	dir := event.Name
	if info, err := os.Stat(event.Name); err != nil || !info.IsDir() {
		dir = filepath.Dir(event.Name)
	}
	if dir == w.rootPath {
		return
	}

	w.scheduleRescan(ctx, dir)
}

// scheduleRescan (re)arms the debounce timer for a directory.
func (w *Watcher) scheduleRescan(ctx context.Context, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[dir]; ok {
		timer.Reset(debounceWindow)
		return
	}

	w.pending[dir] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.pending, dir)
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		w.logger.Debug("rescanning changed directory", "path", dir)
		if err := w.scanner.ScanDir(ctx, w.rootPath, dir, ScanOptions{}); err != nil {
			w.logger.Error("incremental rescan failed", "path", dir, "error", err)
		}
	})
}

// addRecursive registers a directory and all its subdirectories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

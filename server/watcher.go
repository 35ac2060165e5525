package server

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"
)

// WatcherConfig configures the file watcher
type WatcherConfig struct {
	// Root is the workspace directory to watch recursively
	Root string

	// Debounce is how long the tree must be quiet before a batch is emitted
	Debounce time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// ChangeBatch is a set of workspace-relative YAML paths that changed within
// one quiet period, sorted.
type ChangeBatch struct {
	Paths []string
}

// Watcher watches a workspace for YAML changes and emits debounced batches.
// Hidden directories, node_modules and anything matched by the workspace
// .gitignore are skipped.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	ignore   *ignore.GitIgnore
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
	lastEvent time.Time

	events chan ChangeBatch
}

// NewWatcher creates a new file watcher
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := config.Debounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	w := &Watcher{
		root:     config.Root,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]fsnotify.Op),
		events:   make(chan ChangeBatch, 16),
	}

	gi, err := ignore.CompileIgnoreFile(filepath.Join(config.Root, ".gitignore"))
	switch {
	case err == nil:
		w.ignore = gi
	case !os.IsNotExist(err):
		logger.Warn("Failed to read .gitignore", "error", err)
	}

	return w, nil
}

// Events returns the channel of change batches. It is closed when the
// processing loop exits.
func (w *Watcher) Events() <-chan ChangeBatch {
	return w.events
}

// Start adds watches and begins processing events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.root,
		"debounce", w.debounce)

	return nil
}

// Close releases the underlying fsnotify watcher, which also ends the
// processing loop.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) skipDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || base == "node_modules" {
		return true
	}
	return w.ignored(path, true)
}

// ignored reports whether the .gitignore matches path.
func (w *Watcher) ignored(path string, dir bool) bool {
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if dir {
		rel += "/"
	}
	return w.ignore.MatchesPath(rel)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case now := <-ticker.C:
			w.flushPending(ctx, now)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !isYAML(path) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if w.ignored(path, false) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.lastEvent = time.Now()
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		"path", path,
		"op", event.Op.String())
}

func (w *Watcher) handleNewDirectory(path string) {
	if w.skipDir(path) {
		return
	}
	// Files created before the watch was added would otherwise be missed.
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
		return
	}
	w.logger.Debug("Added watch for new directory", "path", path)
}

// flushPending emits the pending set once no event has arrived for a full
// debounce interval.
func (w *Watcher) flushPending(ctx context.Context, now time.Time) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 || now.Sub(w.lastEvent) < w.debounce {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		if rel, err := filepath.Rel(w.root, p); err == nil {
			p = rel
		}
		paths = append(paths, filepath.ToSlash(p))
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	sort.Strings(paths)

	select {
	case w.events <- ChangeBatch{Paths: paths}:
		w.logger.Debug("Sent change batch", "files", len(paths))
	case <-ctx.Done():
	default:
		w.logger.Warn("Event channel full, dropping change batch", "files", len(paths))
	}
}

// Package watch observes the input files and signals when a rebuild is due.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/atlasgen/internal/source"
)

const defaultDebounce = 500 * time.Millisecond

// Change is one debounced batch of modified input files.
type Change struct {
	Paths []string
}

// Watcher watches every directory under the static base of an input glob
// and emits a Change once the matching files have been quiet for the
// debounce interval.
type Watcher struct {
	pattern  string
	baseDir  string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]fsnotify.Op
	last    time.Time

	changes chan Change
}

func New(pattern string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		pattern:  pattern,
		baseDir:  source.BaseDir(pattern),
		debounce: debounce,
		fsw:      fsw,
		log:      log,
		pending:  make(map[string]fsnotify.Op),
		changes:  make(chan Change, 1),
	}, nil
}

// Changes is closed when the watcher stops.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start adds the watches and begins processing events in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.baseDir); err != nil {
		return err
	}
	go w.run(ctx)
	w.log.Info("input watcher started", "base_dir", w.baseDir, "pattern", w.pattern, "debounce", w.debounce)
	return nil
}

func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("watch directory failed", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		case now := <-ticker.C:
			if c, ok := w.flush(now); ok {
				select {
				case w.changes <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.log.Warn("watch new directory failed", "path", ev.Name, "error", err)
			}
			return
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	if !source.Match(w.pattern, ev.Name) {
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = ev.Op
	w.last = time.Now()
	w.mu.Unlock()
	w.log.Debug("input change detected", "path", ev.Name, "op", ev.Op.String())
}

// flush returns the pending batch once no event has arrived for the
// debounce interval.
func (w *Watcher) flush(now time.Time) (Change, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 || now.Sub(w.last) < w.debounce {
		return Change{}, false
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	w.pending = make(map[string]fsnotify.Op)
	return Change{Paths: paths}, true
}

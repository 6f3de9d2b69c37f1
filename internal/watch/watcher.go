// Package watch monitors module source directories and reports changed
// manifests in debounced batches.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 500 * time.Millisecond

// defaultIgnores are always excluded. Editors write swap and backup files
// next to manifests.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.*.swp",
	"**/*~",
	"**/.DS_Store",
	"**/*.tmp",
}

// Config holds the parameters for a Watcher.
type Config struct {
	// Roots are the directories to watch recursively. Missing roots are
	// skipped.
	Roots []string

	// Ignore are extra doublestar patterns, matched against slash-separated
	// paths relative to their root.
	Ignore []string

	// Debounce is the quiet period after the last event before OnChange
	// fires.
	Debounce time.Duration

	// OnChange receives the sorted, deduplicated absolute paths of manifests
	// that changed. An error is logged and does not stop the watcher.
	OnChange func(ctx context.Context, changed []string) error

	Logger *log.Logger
}

// Watcher reports changed manifest files under a set of roots. Run must be
// called exactly once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	roots    []string
	ignores  []string
	debounce time.Duration
	logger   *log.Logger
	started  atomic.Bool
}

// New validates cfg and registers every directory under the roots.
func New(cfg Config) (*Watcher, error) {
	for _, pat := range cfg.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}

	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: resolve root %s: %w", root, err)
		}
		if _, err := os.Stat(abs); err != nil {
			w.logger.Warn("not watching missing source", "path", abs)
			continue
		}
		w.roots = append(w.roots, abs)
		if err := w.addTree(abs, nil); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Roots returns the directories being watched.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// Run processes events until ctx is cancelled and returns nil then. Callbacks
// never overlap; a batch arriving while one runs is delivered after it.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}
	defer w.fsw.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running sync.Mutex
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		running.Lock()
		defer running.Unlock()

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("change handler failed", "err", err)
		}
	}

	enqueue := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		pending[path] = struct{}{}
		if timer == nil {
			timer = time.AfterFunc(w.debounce, fire)
		} else {
			timer.Reset(w.debounce)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddTree(evt.Name, enqueue)
			}
			if !w.relevant(evt.Name) {
				continue
			}
			w.logger.Debug("manifest event", "path", evt.Name, "op", evt.Op.String())
			enqueue(evt.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// relevant reports whether path is a non-ignored manifest under a root.
func (w *Watcher) relevant(path string) bool {
	if !blueprint.IsManifestFile(path) {
		return false
	}
	rel, ok := w.relative(path)
	return ok && !w.isIgnored(rel)
}

// relative returns path relative to the root containing it.
func (w *Watcher) relative(path string) (string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && filepath.IsLocal(rel) {
			return filepath.ToSlash(rel), true
		}
	}
	return "", false
}

func (w *Watcher) isIgnored(rel string) bool {
	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// addTree registers root and every non-ignored directory below it. When
// found is non-nil it receives every manifest already present.
func (w *Watcher) addTree(root string, found func(path string)) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			if found != nil && w.relevant(path) {
				found(path)
			}
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "." && w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %s: %w", path, err)
		}
		return nil
	})
}

// maybeAddTree extends the watch to a directory created after startup.
// Manifests written into it before the watch was in place go to found.
func (w *Watcher) maybeAddTree(path string, found func(path string)) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path, found); err != nil {
		w.logger.Warn("watching new directory failed", "path", path, "err", err)
	}
}

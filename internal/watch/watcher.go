// Package watch provides a debounced fsnotify wrapper used for both
// configuration-file reload and module-source change detection,
// grounded on giantswarm-muster's internal/reconciler.FilesystemDetector.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op classifies a coalesced change, mirroring the Create/Write/Remove
// merge semantics described in SPEC_FULL §4.D.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a single debounced filesystem change.
type Event struct {
	Path string
	Op   Op
}

type pending struct {
	event Event
	timer *time.Timer
}

// Watcher watches a set of directories (non-recursively, per §4.D) and
// emits one coalesced Event per path after debounce elapses, merging
// rapid Create+Write+Remove sequences the same way muster's
// FilesystemDetector does.
type Watcher struct {
	logger   *slog.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pending

	events chan Event
}

// New creates a Watcher with the given debounce interval (0 defaults to
// 1s, per SPEC_FULL §4.D/§8 scenario 3's "within 2s" bound).
func New(logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		logger:   logger.With("component", "file-watcher"),
		debounce: debounce,
		fsw:      fsw,
		pending:  make(map[string]*pending),
		events:   make(chan Event, 64),
	}, nil
}

// AddDir adds a non-recursive watch on dir. AddDir is idempotent.
func (w *Watcher) AddDir(dir string) error {
	return w.fsw.Add(dir)
}

// AddFile watches the parent directory of path so renames-over (as
// editors commonly do on save) are observed. The watch is not filtered:
// events for every entry in that directory are emitted, not only those
// for path.
func (w *Watcher) AddFile(path string) error {
	return w.fsw.Add(filepath.Dir(path))
}

// Events returns the channel of coalesced, debounced events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run processes raw fsnotify events until ctx is cancelled, debouncing
// and merging per path. Run must be started in its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer w.cleanup()
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
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	var op Op
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
	case ev.Op&fsnotify.Write != 0:
		op = OpWrite
	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		op = OpRemove
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := ev.Name
	if p, ok := w.pending[key]; ok {
		p.timer.Stop()
		p.event.Op = mergeOps(p.event.Op, op)
	} else {
		w.pending[key] = &pending{event: Event{Path: key, Op: op}}
	}

	p := w.pending[key]
	p.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		final, ok := w.pending[key]
		if ok {
			delete(w.pending, key)
		}
		w.mu.Unlock()
		if !ok {
			return
		}
		select {
		case w.events <- final.event:
		default:
			w.logger.Warn("event channel full, dropping event", "path", final.event.Path)
		}
	})
}

// mergeOps implements the Create+Delete→Delete family of merges named in
// SPEC_FULL §4.D.
func mergeOps(old, next Op) Op {
	if old == OpCreate && next == OpRemove {
		return OpRemove
	}
	if old == OpCreate && next == OpWrite {
		return OpCreate
	}
	if old == OpWrite && next == OpRemove {
		return OpRemove
	}
	return next
}

func (w *Watcher) cleanup() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.pending = make(map[string]*pending)
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

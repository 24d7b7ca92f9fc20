package pluginsync

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Root is one external module source root configured by the user,
// mirrored into installDir/Name.
type Root struct {
	Name string
	Path string
}

// state is persisted to disk so a restart doesn't re-mirror unchanged
// roots; it is the "state file" named in §4.I.
type state struct {
	Hashes map[string]string `yaml:"hashes"`
}

// Syncer mirrors configured Roots into an installation directory and
// tracks the rolling hash that decides whether a given root changed
// since the last sync, per §4.I.
type Syncer struct {
	installDir string
	statePath  string
	logger     *slog.Logger

	notify func(title, message string)

	mu              sync.Mutex
	hashes          map[string]string
	notifiedFSError bool
}

// New creates a Syncer that mirrors into installDir, persisting sync
// state to installDir/.pluginsync-state.yaml. notify is called with a
// user-facing message after a successful sync that changed at least
// one root; it may be nil.
func New(installDir string, notify func(title, message string), logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{
		installDir: installDir,
		statePath:  filepath.Join(installDir, ".pluginsync-state.yaml"),
		logger:     logger.With("component", "pluginsync"),
		notify:     notify,
		hashes:     make(map[string]string),
	}
	s.loadState()
	return s
}

func (s *Syncer) loadState() {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return
	}
	var st state
	if err := yaml.Unmarshal(data, &st); err != nil {
		s.logger.Warn("ignoring unreadable sync state", "path", s.statePath, "error", err)
		return
	}
	if st.Hashes != nil {
		s.hashes = st.Hashes
	}
}

func (s *Syncer) saveState() error {
	s.mu.Lock()
	st := state{Hashes: s.hashes}
	s.mu.Unlock()

	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	tmp := s.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.statePath)
}

// SyncAll mirrors every root whose rolling hash has changed since the
// last sync. It returns the names of roots that were actually
// re-mirrored. A notification fires at most once per call, summarizing
// however many roots changed, per §7's "user notified at most once per
// session" cap on FilesystemError (extended here to the happy path
// too, so a multi-root sync doesn't spam one notification per root).
//
// Each root is hashed and mirrored independently, so they run
// concurrently via errgroup; a single slow or misbehaving root never
// holds up the others. s.hashes is protected by s.mu and the
// changed-name list by a local mutex.
func (s *Syncer) SyncAll(roots []Root) []string {
	var (
		mu      sync.Mutex
		changed []string
	)

	var g errgroup.Group
	for _, r := range roots {
		r := r
		g.Go(func() error {
			if _, err := os.Stat(filepath.Join(r.Path, MarkerFile)); err == nil {
				return nil
			}

			h, err := Hash(r.Path)
			if err != nil {
				s.reportFSError(err)
				return nil
			}

			s.mu.Lock()
			prev := s.hashes[r.Name]
			s.mu.Unlock()
			if prev == h {
				return nil
			}

			dst := filepath.Join(s.installDir, r.Name)
			if err := Mirror(r.Path, dst); err != nil {
				s.reportFSError(err)
				return nil
			}

			s.mu.Lock()
			s.hashes[r.Name] = h
			s.mu.Unlock()

			mu.Lock()
			changed = append(changed, r.Name)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(changed)

	if len(changed) == 0 {
		return nil
	}

	if err := s.saveState(); err != nil {
		s.logger.Warn("failed to persist sync state", "error", err)
	}
	if s.notify != nil {
		s.notify("waypanel", fmt.Sprintf("%d module source(s) updated; restart the panel or reload the affected modules to apply changes", len(changed)))
	}
	return changed
}

func (s *Syncer) reportFSError(err error) {
	s.logger.Warn("filesystem error during sync", "error", err)
	s.mu.Lock()
	already := s.notifiedFSError
	s.notifiedFSError = true
	s.mu.Unlock()
	if !already && s.notify != nil {
		s.notify("waypanel", "a module source failed to sync; see logs for details")
	}
}

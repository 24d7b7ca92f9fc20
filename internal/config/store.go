// Package config resolves XDG paths and owns waypanel's single TOML
// configuration document: load/save/reload, dotted-path access, and the
// settings-hints surface modules use to self-describe their keys.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/waypanel/waypanel/internal/core"
)

// ReloadEvent is published on topic "config-reloaded" after a reload
// completes, per spec §8 scenario 3.
type ReloadEvent struct {
	Tree Tree
}

// Store owns the live configuration tree and the hint registry, and
// implements core.ConfigAccessor so it can be wired directly into a
// core.Host's Config field.
type Store struct {
	logger *slog.Logger
	paths  Paths
	hints  *core.HintRegistry

	mu   sync.RWMutex
	tree Tree

	onReload func(Tree)
}

// NewStore loads the configuration file if present, or starts from an
// empty tree when it does not yet exist (first run). An unreadable file
// that is not a simple "does not exist" is returned as an error so the
// caller can decide between exit code 1 (§6) and falling back to
// compiled-in defaults.
func NewStore(logger *slog.Logger, paths Paths, hints *core.HintRegistry) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if hints == nil {
		hints = core.NewHintRegistry()
	}
	s := &Store{
		logger: logger.With("component", "config-store"),
		paths:  paths,
		hints:  hints,
		tree:   make(Tree),
	}

	tree, err := load(paths.ConfigFile)
	switch {
	case err == nil:
		s.tree = tree
	case isNotExist(err):
		s.logger.Info("no config file found, starting from empty tree", "path", paths.ConfigFile)
	default:
		return nil, err
	}
	return s, nil
}

// OnReload registers the callback invoked after every successful Reload,
// used by the Host Application to publish the config-reloaded event.
func (s *Store) OnReload(fn func(Tree)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = fn
}

// Snapshot returns a deep copy of the current tree, safe for lock-free
// reads on the UI thread per §4.A.
func (s *Store) Snapshot() Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Clone()
}

// GetSetting implements core.ConfigAccessor: it returns the value at
// path, or def if absent. path is a dotted-path vector, e.g.
// []string{"panels", "top", "size"}.
func (s *Store) GetSetting(path []string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.tree.GetPath(path); ok {
		return v
	}
	return def
}

// Set writes a value at path in the live tree. Callers must call Save to
// persist it.
func (s *Store) Set(path []string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.SetPath(path, value)
}

// AddHint implements core.ConfigAccessor: it records a settings hint and
// returns the hint actually stored, which may be an earlier owner's
// registration for the same path. It does not return the configured
// value at path; GetSetting reads that.
func (s *Store) AddHint(owner core.ModuleIdentifier, path []string, def any, description string) core.SettingHint {
	return s.hints.Add(owner, path, def, description)
}

// Hints returns every recorded settings hint, for the get_plugins_data /
// get_config_data tooling surface (§4.H, §6).
func (s *Store) Hints() []core.SettingHint {
	return s.hints.All()
}

// Save persists the current tree atomically to ConfigFile (§6, §8).
func (s *Store) Save() error {
	s.mu.RLock()
	tree := s.tree.Clone()
	s.mu.RUnlock()
	return save(s.paths.ConfigFile, tree)
}

// Reload re-reads the configuration file from disk, replacing the live
// tree, and invokes the registered OnReload callback with the new
// snapshot. Per spec §5, a handler observing the resulting
// config-reloaded event sees the snapshot current at dispatch time.
func (s *Store) Reload() error {
	tree, err := load(s.paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("config: reload: %w", err)
	}

	s.mu.Lock()
	s.tree = tree
	cb := s.onReload
	s.mu.Unlock()

	s.logger.Info("configuration reloaded", "path", s.paths.ConfigFile)
	if cb != nil {
		cb(tree.Clone())
	}
	return nil
}

// ConfigFile returns the path Load/Save/Reload operate on, for the File
// Watcher to set up its watch against.
func (s *Store) ConfigFile() string {
	return s.paths.ConfigFile
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

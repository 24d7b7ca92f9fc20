package core

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// bundledSources holds modules compiled directly into the host binary.
// Populated by RegisterModule, normally called from a module package's
// init() function — exactly as the teacher's modules call
// core.RegisterModule(&Manager{}) at import time.
var (
	bundledMu  sync.RWMutex
	bundled    = make(map[ModuleIdentifier]ModuleSource)
	bundledSeq []ModuleIdentifier
)

// RegisterModule registers a bundled (compiled-in) module source. It
// panics on an empty ID or a duplicate registration, since both are
// programming errors caught at process startup, never at runtime.
func RegisterModule(src ModuleSource) {
	if src.Metadata == nil {
		panic("core: module source metadata function must not be nil")
	}
	if src.Factory == nil {
		panic("core: module source factory function must not be nil")
	}

	// Metadata is evaluated lazily per §4.E, so we only need the ID here.
	// Bundled sources are asked for a throwaway host-free metadata probe
	// by calling Metadata(nil); bundled modules must tolerate a nil host
	// in that call (they should not dereference it).
	probe := src.Metadata(nil)
	if probe.ID == "" {
		panic("core: module ID must not be empty")
	}

	bundledMu.Lock()
	defer bundledMu.Unlock()

	if _, exists := bundled[probe.ID]; exists {
		panic(fmt.Sprintf("core: module already registered: %s", probe.ID))
	}
	bundled[probe.ID] = src
	bundledSeq = append(bundledSeq, probe.ID)
}

// sidecarManifest is the cheap YAML file a filesystem-discovered plugin
// ships next to its compiled .so, so the Registry can reject a disabled
// candidate without calling plugin.Open, which is
// comparatively expensive and, once done, cannot be undone for the
// process lifetime.
type sidecarManifest struct {
	ID      string `yaml:"id"`
	Enabled *bool  `yaml:"enabled"`
}

// Registry indexes ModuleMetadata by ModuleIdentifier, built by scanning a
// precedence-ordered list of module root directories plus the bundled set.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sources  map[ModuleIdentifier]ModuleSource
	metadata map[ModuleIdentifier]ModuleMetadata
	order    []ModuleIdentifier
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger.With("component", "module-registry"),
		sources:  make(map[ModuleIdentifier]ModuleSource),
		metadata: make(map[ModuleIdentifier]ModuleMetadata),
	}
}

// Scan populates the Registry from a precedence-ordered list of
// directories (user data path first, then system data paths) followed
// implicitly by the bundled set, which is always scanned last. The first
// ModuleIdentifier found wins; later duplicates are logged and dropped.
//
// Each directory is searched (non-recursively) for "*.so" plugin objects.
// A plugin candidate may ship a "<name>.manifest.yaml" sidecar; when
// present it is decoded first and used to skip disabled candidates
// without paying for plugin.Open.
func (r *Registry) Scan(host *Host, roots []string) error {
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("core: scanning module root %s: %w", root, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".so") {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if err := r.loadCandidate(host, path); err != nil {
				r.logger.Warn("module candidate rejected", "path", path, "error", err)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, src := range bundledSourcesSnapshot() {
		r.addLocked(id, src, src.Metadata(host))
	}
	return nil
}

func bundledSourcesSnapshot() map[ModuleIdentifier]ModuleSource {
	bundledMu.RLock()
	defer bundledMu.RUnlock()
	out := make(map[ModuleIdentifier]ModuleSource, len(bundled))
	for _, id := range bundledSeq {
		out[id] = bundled[id]
	}
	return out
}

func (r *Registry) loadCandidate(host *Host, path string) error {
	if manifestPath := strings.TrimSuffix(path, ".so") + ".manifest.yaml"; fileExists(manifestPath) {
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("%w: reading manifest: %v", ErrModuleMetadata, err)
		}
		var m sidecarManifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("%w: parsing manifest: %v", ErrModuleMetadata, err)
		}
		if m.Enabled != nil && !*m.Enabled {
			return nil // quietly skip: disabled before paying for plugin.Open
		}
	}

	p, err := plugin.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening plugin: %v", ErrModuleMetadata, err)
	}
	metaSym, err := p.Lookup("Metadata")
	if err != nil {
		return fmt.Errorf("%w: missing Metadata symbol: %v", ErrModuleMetadata, err)
	}
	factorySym, err := p.Lookup("Factory")
	if err != nil {
		return fmt.Errorf("%w: missing Factory symbol: %v", ErrModuleMetadata, err)
	}
	metaFn, ok := metaSym.(func(*Host) ModuleMetadata)
	if !ok {
		return fmt.Errorf("%w: Metadata has wrong signature", ErrModuleMetadata)
	}
	factoryFn, ok := factorySym.(func() ModuleFactory)
	if !ok {
		return fmt.Errorf("%w: Factory has wrong signature", ErrModuleMetadata)
	}

	src := ModuleSource{Path: path, Kind: KindUI, Factory: factoryFn, Metadata: metaFn}
	meta := metaFn(host)
	if err := meta.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(meta.ID, src, meta)
	return nil
}

// addLocked adds a module's source and metadata if the ID has not yet been
// claimed; otherwise logs and keeps the first-found entry, per §4.E.
func (r *Registry) addLocked(id ModuleIdentifier, src ModuleSource, meta ModuleMetadata) {
	if _, exists := r.sources[id]; exists {
		r.logger.Warn("duplicate module id, keeping first found", "id", id, "path", src.Path)
		return
	}
	r.sources[id] = src
	r.metadata[id] = meta
	r.order = append(r.order, id)
}

// Get returns the metadata and source for a module ID.
func (r *Registry) Get(id ModuleIdentifier) (ModuleMetadata, ModuleSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[id]
	if !ok {
		return ModuleMetadata{}, ModuleSource{}, false
	}
	return meta, r.sources[id], true
}

// All returns every discovered module's metadata, sorted by ID.
func (r *Registry) All() []ModuleMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModuleMetadata, 0, len(r.metadata))
	for _, m := range r.metadata {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b ModuleMetadata) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package core

import (
	"cmp"
	"slices"
	"sync"
)

// SettingHint is a tooling-visible description of a configuration key a
// module depends on: its default value and a human-readable description,
// recorded the first time the module calls config.add_hint (§4.H).
type SettingHint struct {
	Path        []string
	Default     any
	Description string
	Owner       ModuleIdentifier
}

// HintRegistry centralizes every module's settings-hint registrations
// under one process-wide lookup, mirroring the teacher's
// ctx.RegisterService convention for cross-cutting registrations named
// in SPEC_FULL §4.H.
type HintRegistry struct {
	mu    sync.Mutex
	byKey map[string]SettingHint
}

// NewHintRegistry creates an empty HintRegistry.
func NewHintRegistry() *HintRegistry {
	return &HintRegistry{byKey: make(map[string]SettingHint)}
}

// Add records a hint, keyed by its dotted path. The first registration
// for a given path wins; later calls are assumed to be re-declarations
// from a reload and are ignored rather than treated as an error.
func (r *HintRegistry) Add(owner ModuleIdentifier, path []string, def any, description string) SettingHint {
	key := joinPath(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[key]; ok {
		return existing
	}
	hint := SettingHint{Path: path, Default: def, Description: description, Owner: owner}
	r.byKey[key] = hint
	return hint
}

// All returns every recorded hint, sorted by dotted path, for the
// get_plugins_data / get_config_data tooling surface.
func (r *HintRegistry) All() []SettingHint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SettingHint, 0, len(r.byKey))
	for _, h := range r.byKey {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b SettingHint) int {
		return cmp.Compare(joinPath(a.Path), joinPath(b.Path))
	})
	return out
}

func joinPath(path []string) string {
	out := ""
	for i, seg := range path {
		if i > 0 {
			out += "."
		}
		out += seg
	}
	return out
}

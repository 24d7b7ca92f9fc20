package config

import "strings"

// Tree is the in-memory configuration document: a map[string]any leaf
// with dotted-path accessors, per SPEC_FULL §6 ("not as a static struct,
// since a module's namespace is unknown to the host at compile time").
// Nested TOML tables decode as map[string]any and are addressed by
// splitting a dotted path into path segments.
type Tree map[string]any

// Get looks up a dotted path (e.g. "panels.top.size") against the tree,
// descending through nested map[string]any values.
func (t Tree) Get(path string) (any, bool) {
	return getPath(t, splitPath(path))
}

// GetPath looks up a pre-split path vector, avoiding repeated splitting
// when a caller already holds path segments (e.g. a module's own
// namespace prefix plus a relative key).
func (t Tree) GetPath(segments []string) (any, bool) {
	return getPath(t, segments)
}

// Set writes a value at a dotted path, creating intermediate tables as
// needed. Existing non-table values along the path are overwritten.
func (t Tree) Set(path string, value any) {
	setPath(t, splitPath(path), value)
}

// SetPath writes a value at a pre-split path vector.
func (t Tree) SetPath(segments []string, value any) {
	setPath(t, segments, value)
}

// Remove deletes the value at a dotted path, if present. It is a no-op
// if any intermediate segment is missing or not a table.
func (t Tree) Remove(path string) {
	removePath(t, splitPath(path))
}

// Clone returns a deep copy suitable for a lock-free UI-thread snapshot
// (§4.A "Snapshot() ConfigTree"): readers holding a Clone never observe
// a concurrent Set/Remove on the live tree.
func (t Tree) Clone() Tree {
	return cloneValue(t).(Tree)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func getPath(m map[string]any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return m, true
	}
	v, ok := m[segments[0]]
	if !ok {
		return nil, false
	}
	if len(segments) == 1 {
		return v, true
	}
	next, ok := v.(map[string]any)
	if !ok {
		if asTree, ok := v.(Tree); ok {
			next = asTree
		} else {
			return nil, false
		}
	}
	return getPath(next, segments[1:])
}

func setPath(m map[string]any, segments []string, value any) {
	if len(segments) == 0 {
		return
	}
	if len(segments) == 1 {
		m[segments[0]] = value
		return
	}
	child, ok := m[segments[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		m[segments[0]] = child
	}
	setPath(child, segments[1:], value)
}

func removePath(m map[string]any, segments []string) {
	if len(segments) == 0 {
		return
	}
	if len(segments) == 1 {
		delete(m, segments[0])
		return
	}
	child, ok := m[segments[0]].(map[string]any)
	if !ok {
		return
	}
	removePath(child, segments[1:])
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Tree:
		out := make(Tree, len(val))
		for k, child := range val {
			out[k] = cloneValue(child)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = cloneValue(child)
		}
		return out
	default:
		return val
	}
}

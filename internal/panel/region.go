// Package panel implements the Panel Region Registry (SPEC_FULL §4.G):
// the named attachment points inside a panel surface that modules
// contribute widgets to. The registry never creates or destroys
// widgets, only arranges the (module, widget, index) relationships the
// UI layer realizes.
package panel

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/waypanel/waypanel/internal/core"
)

// ErrUnknownRegion is returned by Attach when the named region was
// never registered by the Host Application's schema setup.
var ErrUnknownRegion = errors.New("panel: unknown region")

// Orientation is the layout direction of a Region's children.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Background is the sentinel region name for modules with no UI, per §6.
const Background = "background"

type child struct {
	module core.ModuleIdentifier
	widget core.WidgetHandle
	index  int
	seq    int
}

// Region is a named attachment point inside a panel surface. It is not
// itself a widget.
type Region struct {
	Name        string
	Orientation Orientation

	mu           sync.Mutex
	children     []child
	overflowName string
}

// Children returns a snapshot of this region's widgets in display
// order: index ascending, insertion order as
// tie-break, per the invariant in §8.
func (r *Region) Children() []core.WidgetHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.WidgetHandle, len(r.children))
	for i, c := range r.children {
		out[i] = c.widget
	}
	return out
}

// Owners returns the ModuleIdentifier for every currently attached
// child, in display order, primarily for tests asserting ordering.
func (r *Region) Owners() []core.ModuleIdentifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.ModuleIdentifier, len(r.children))
	for i, c := range r.children {
		out[i] = c.module
	}
	return out
}

func (r *Region) attach(module core.ModuleIdentifier, widget core.WidgetHandle, mode core.AttachMode, index, seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch mode {
	case core.AttachSetContent:
		r.children = []child{{module: module, widget: widget, index: index, seq: seq}}
	default: // core.AttachAppend
		r.children = append(r.children, child{module: module, widget: widget, index: index, seq: seq})
		sort.SliceStable(r.children, func(i, j int) bool {
			return r.children[i].index < r.children[j].index
		})
	}
}

func (r *Region) detach(module core.ModuleIdentifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.children[:0:0]
	for _, c := range r.children {
		if c.module != module {
			kept = append(kept, c)
		}
	}
	r.children = kept
}

func (r *Region) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.children)
}

// Registry indexes every Region across every PanelSurface by name (region
// names are globally unique, per the closed set in §6) and implements
// core.RegionAttacher.
type Registry struct {
	mu      sync.Mutex
	regions map[string]*Region
	seq     int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{regions: make(map[string]*Region)}
}

// RegisterRegion adds a region to the registry, idempotently: a second
// call with the same name is a no-op so the Host can call this freely
// while assembling each PanelSurface's fixed schema.
func (reg *Registry) RegisterRegion(name string, orientation Orientation) *Region {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.regions[name]; ok {
		return r
	}
	r := &Region{Name: name, Orientation: orientation}
	reg.regions[name] = r
	return r
}

// SetOverflow records region's dedicated overflow container, used by
// Overflow to decide whether to divert or pass through.
func (reg *Registry) SetOverflow(region, overflowRegion string) {
	reg.mu.Lock()
	r, ok := reg.regions[region]
	reg.mu.Unlock()
	if !ok {
		return
	}
	r.mu.Lock()
	r.overflowName = overflowRegion
	r.mu.Unlock()
}

// Region returns a named region, if registered.
func (reg *Registry) Region(name string) (*Region, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.regions[name]
	return r, ok
}

// Attach inserts widget into region at position ordered by index,
// breaking ties by insertion order, per §4.G. AttachSetContent replaces
// the region's entire content with widget instead of appending.
func (reg *Registry) Attach(region string, module core.ModuleIdentifier, widget core.WidgetHandle, mode core.AttachMode, index int) error {
	reg.mu.Lock()
	r, ok := reg.regions[region]
	if !ok {
		reg.mu.Unlock()
		return fmt.Errorf("%w: unknown region %q", ErrUnknownRegion, region)
	}
	reg.seq++
	seq := reg.seq
	reg.mu.Unlock()

	r.attach(module, widget, mode, index, seq)
	return nil
}

// Detach removes every widget module contributed to region. A no-op if
// module never attached anything there (including an unknown region
// name), matching the round-trip invariant in §8: detach after attach
// must return the region to its prior (empty) state, nothing more.
func (reg *Registry) Detach(region string, module core.ModuleIdentifier) {
	reg.mu.Lock()
	r, ok := reg.regions[region]
	reg.mu.Unlock()
	if !ok {
		return
	}
	r.detach(module)
}

// Overflow diverts widget into region's dedicated overflow container, if
// one is registered via SetOverflow; it reports false when none is
// configured, signaling the caller to attach widget directly instead
// ("pass through", per §4.G).
func (reg *Registry) Overflow(region string, widget core.WidgetHandle) bool {
	reg.mu.Lock()
	r, ok := reg.regions[region]
	reg.mu.Unlock()
	if !ok {
		return false
	}
	r.mu.Lock()
	of := r.overflowName
	r.mu.Unlock()
	if of == "" {
		return false
	}

	reg.mu.Lock()
	target, ok := reg.regions[of]
	reg.seq++
	seq := reg.seq
	reg.mu.Unlock()
	if !ok {
		return false
	}
	target.attach("", widget, core.AttachAppend, target.count(), seq)
	return true
}

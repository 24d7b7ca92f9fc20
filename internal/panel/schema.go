package panel

import "fmt"

// Edge identifies which side of the screen a PanelSurface is anchored
// to, per spec §3.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// regionDef pairs a region name with the orientation its host surface
// lays it out in.
type regionDef struct {
	name        string
	orientation Orientation
}

// topBottomSuffixes is the suffix set shared by top-panel-* and
// bottom-panel-*, per the closed set enumerated in spec §6.
var topBottomSuffixes = []regionDef{
	{"", Horizontal},
	{"-left", Horizontal},
	{"-box-widgets-left", Horizontal},
	{"-center", Horizontal},
	{"-right", Horizontal},
	{"-systray", Horizontal},
	{"-after-systray", Horizontal},
}

var sideSuffixes = []regionDef{
	{"-top", Vertical},
	{"-center", Vertical},
	{"-bottom", Vertical},
}

// RegionNames returns the closed set of region names for edge, in the
// fixed order spec §6 lists them.
func RegionNames(edge Edge) []string {
	var defs []regionDef
	switch edge {
	case EdgeTop, EdgeBottom:
		defs = topBottomSuffixes
	case EdgeLeft, EdgeRight:
		defs = sideSuffixes
	}
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, fmt.Sprintf("%s-panel%s", edge, d.name))
	}
	return names
}

// NewDefaultSchema registers every region for edge onto reg, returning
// the ordered list of region names just registered so the Host
// Application can pre-populate a PanelSurface at startup, per §4.G
// ("For every PanelSurface, the host populates a fixed schema of
// regions at startup").
func NewDefaultSchema(reg *Registry, edge Edge) []string {
	var defs []regionDef
	switch edge {
	case EdgeTop, EdgeBottom:
		defs = topBottomSuffixes
	case EdgeLeft, EdgeRight:
		defs = sideSuffixes
	}
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		name := fmt.Sprintf("%s-panel%s", edge, d.name)
		reg.RegisterRegion(name, d.orientation)
		names = append(names, name)
	}
	return names
}

// EnsureBackground registers the sentinel "background" region used by
// modules with no UI. It is shared across every edge, so callers
// should register it once per Registry.
func EnsureBackground(reg *Registry) {
	reg.RegisterRegion(Background, Horizontal)
}

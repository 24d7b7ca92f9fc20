package panel

// Surface is a PanelSurface (spec §3): an edge-anchored window the UI
// layer realizes, carrying the fixed region schema for its edge. The
// Host Application owns one Surface per enabled `panels.<edge>` config
// entry; monitor assignment (which Output it renders on) is mutable and
// tracked by the Host, not here.
type Surface struct {
	Edge      Edge
	Exclusive bool
	Size      int
	Regions   []string // names of every region registered for this edge
}

// NewSurface registers edge's fixed region schema on reg and returns the
// Surface record the Host keeps for it.
func NewSurface(reg *Registry, edge Edge, exclusive bool, size int) Surface {
	return Surface{
		Edge:      edge,
		Exclusive: exclusive,
		Size:      size,
		Regions:   NewDefaultSchema(reg, edge),
	}
}

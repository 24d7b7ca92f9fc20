// Package host implements the Host Application (SPEC_FULL §4.J): the
// single process-wide orchestrator that builds panel surfaces from
// configuration, resolves and migrates the target output, and wires
// configuration reload / compositor lifecycle events onto the Event
// Bus. Grounded on the teacher's pkg/app/wire.go composition-root
// style, generalized from its single-process agent-router wiring to
// waypanel's panel/module wiring.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/waypanel/waypanel/internal/compositor"
	"github.com/waypanel/waypanel/internal/config"
	"github.com/waypanel/waypanel/internal/core"
	"github.com/waypanel/waypanel/internal/events"
	"github.com/waypanel/waypanel/internal/panel"
)

// ErrNoOutput is returned when the compositor reports no enabled
// output to anchor a panel surface against.
var ErrNoOutput = errors.New("host: no enabled output available")

// outputDirectory is the narrow surface Application needs from the IPC
// Client: output/view queries plus the (re)connect lifecycle hooks.
// Defined locally so host_test.go can substitute
// core/testutil.FakeIPC instead of a real *ipc.Client.
type outputDirectory interface {
	core.IPCAccessor
	OnConnect(func())
	OnDisconnect(func())
}

// Application is the Host Application: it owns the set of
// PanelSurfaces, the output-migration debounce, and the
// config-reload/compositor-lifecycle event wiring described in §4.J.
type Application struct {
	logger   *slog.Logger
	cfg      *config.Store
	bus      *events.Bus
	regions  *panel.Registry
	ipc      outputDirectory
	registry *core.Registry
	loader   *core.Loader
	metrics  *Metrics

	mu             sync.Mutex
	surfaces       map[panel.Edge]*panel.Surface
	targetOutput   string
	migrateDebounce *time.Timer
}

// New creates an Application bound to its collaborators. BuildSurfaces
// and the Wire* methods must be called before it does anything useful;
// New itself performs no I/O.
func New(
	logger *slog.Logger,
	cfg *config.Store,
	bus *events.Bus,
	regions *panel.Registry,
	ipcClient outputDirectory,
	registry *core.Registry,
	loader *core.Loader,
	metrics *Metrics,
) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{
		logger:   logger.With("component", "host"),
		cfg:      cfg,
		bus:      bus,
		regions:  regions,
		ipc:      ipcClient,
		registry: registry,
		loader:   loader,
		metrics:  metrics,
		surfaces: make(map[panel.Edge]*panel.Surface),
	}
}

// BuildSurfaces creates one PanelSurface per enabled panels.<edge>
// entry, registering each edge's fixed region schema (plus the shared
// background sentinel) on the Panel Region Registry, per §4.G/§4.J.
func (a *Application) BuildSurfaces() error {
	panel.EnsureBackground(a.regions)

	edges := []panel.Edge{panel.EdgeTop, panel.EdgeBottom, panel.EdgeLeft, panel.EdgeRight}
	surfaces := make(map[panel.Edge]*panel.Surface, len(edges))
	for _, edge := range edges {
		ec, err := a.cfg.DecodeEdge(string(edge))
		if err != nil {
			return fmt.Errorf("host: decoding %s panel config: %w", edge, err)
		}
		if !ec.Enabled {
			continue
		}
		surface := panel.NewSurface(a.regions, edge, ec.Exclusive, ec.Size)
		surfaces[edge] = &surface
		a.logger.Info("panel surface created", "edge", edge, "size", ec.Size, "exclusive", ec.Exclusive)
	}

	a.mu.Lock()
	a.surfaces = surfaces
	a.mu.Unlock()
	return nil
}

// Surfaces returns the currently built panel surfaces, keyed by edge.
func (a *Application) Surfaces() map[panel.Edge]*panel.Surface {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[panel.Edge]*panel.Surface, len(a.surfaces))
	for edge, s := range a.surfaces {
		out[edge] = s
	}
	return out
}

// ResolveOutput picks the target output per §4.J: primary_output.name
// if set and enabled, else the first output not marked disabled.
func (a *Application) ResolveOutput(ctx context.Context) (compositor.Output, error) {
	chrome, err := a.cfg.DecodePanelChrome()
	if err != nil {
		return compositor.Output{}, fmt.Errorf("host: decoding panel chrome: %w", err)
	}
	outputs, err := a.ipc.ListOutputs(ctx)
	if err != nil {
		return compositor.Output{}, fmt.Errorf("host: listing outputs: %w", err)
	}

	if name := chrome.PrimaryOutput.Name; name != "" {
		for _, o := range outputs {
			if o.Name == name && !o.Disabled {
				return o, nil
			}
		}
	}
	for _, o := range outputs {
		if !o.Disabled {
			return o, nil
		}
	}
	return compositor.Output{}, ErrNoOutput
}

// CurrentOutput returns the name of the output panel surfaces are
// currently anchored to, or "" before the first successful migration.
func (a *Application) CurrentOutput() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.targetOutput
}

// OnOutputLayoutChanged schedules a debounced re-resolution of the
// target output, per §4.J's 100ms coalescing window: repeated calls
// within the window collapse into a single migration attempt, matching
// the way the File Watcher coalesces filesystem events.
func (a *Application) OnOutputLayoutChanged(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.migrateDebounce != nil {
		a.migrateDebounce.Stop()
	}
	a.migrateDebounce = time.AfterFunc(100*time.Millisecond, func() { a.migrateOutput(ctx) })
}

// migrateOutput re-resolves the target output and migrates every panel
// surface to it, unless a fullscreen view is already present there, in
// which case the migration is deferred until the next layout change.
func (a *Application) migrateOutput(ctx context.Context) {
	target, err := a.ResolveOutput(ctx)
	if err != nil {
		a.logger.Warn("output resolution failed", "error", err)
		return
	}

	a.mu.Lock()
	current := a.targetOutput
	a.mu.Unlock()
	if target.Name == current {
		return
	}

	views, err := a.ipc.ListViews(ctx)
	if err == nil {
		for _, v := range views {
			if v.OutputID == target.ID && v.Fullscreen {
				a.logger.Info("deferring output migration, fullscreen view present", "output", target.Name)
				return
			}
		}
	}

	a.mu.Lock()
	a.targetOutput = target.Name
	a.mu.Unlock()
	a.logger.Info("migrating panel surfaces", "output", target.Name)
	a.bus.Publish("panel-surfaces-migrated", target)
}

// WireConfigReload registers the Store.OnReload callback that
// publishes "config-reloaded" onto the Event Bus, per §8 scenario 3.
func (a *Application) WireConfigReload() {
	a.cfg.OnReload(func(tree config.Tree) {
		a.bus.Publish("config-reloaded", config.ReloadEvent{Tree: tree})
	})
}

// WireCompositorLifecycle publishes "compositor-connected" and
// "compositor-disconnected" onto the Event Bus from the IPC Client's
// lifecycle hooks, per §4.J and §8 scenario 4.
func (a *Application) WireCompositorLifecycle() {
	a.ipc.OnConnect(func() { a.bus.Publish("compositor-connected", nil) })
	a.ipc.OnDisconnect(func() { a.bus.Publish("compositor-disconnected", nil) })
}

package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/waypanel/waypanel/internal/compositor"
)

// ConfigAccessor is the narrow configuration surface a module receives,
// per spec §4.H. AddHint records a tooling-visible default/description
// and returns the stored hint; it does not return the configured value,
// which GetSetting reads.
type ConfigAccessor interface {
	GetSetting(path []string, def any) any
	AddHint(owner ModuleIdentifier, path []string, def any, description string) SettingHint
}

// EventPublisher is the Event Bus surface a module receives, per §4.C.
type EventPublisher interface {
	Subscribe(topic string, handler func(payload any), owner ModuleIdentifier)
	Unsubscribe(topic string, handler func(payload any))
	UnsubscribeAll(owner ModuleIdentifier)
	Publish(topic string, payload any)
}

// TopicSubscriber is the decorator-equivalent convenience named in
// §4.C/§9: a module implementing it returns every topic it wants to
// subscribe to, keyed by topic name, and the Loader subscribes each one
// on its behalf at load time instead of requiring an explicit
// Events.Subscribe call from OnStart. events.Handler is an alias of
// func(payload any), so a module written against that package's Handler
// type satisfies this interface with no shim.
type TopicSubscriber interface {
	Topics() map[string]func(payload any)
}

// RegionAttacher is the Panel Region Registry surface a module receives,
// per §4.G.
type RegionAttacher interface {
	Attach(region string, module ModuleIdentifier, widget WidgetHandle, mode AttachMode, index int) error
	Detach(region string, module ModuleIdentifier)
}

// IPCAccessor is the compositor IPC surface a module receives, per §4.B.
type IPCAccessor interface {
	ListViews(ctx context.Context) ([]compositor.View, error)
	GetView(ctx context.Context, id int) (compositor.View, error)
	GetFocusedView(ctx context.Context) (compositor.View, error)
	CloseView(ctx context.Context, id int) error
	SetFocus(ctx context.Context, id int) error
	ConfigureView(ctx context.Context, id, x, y, w, h int, outputID *int) error
	SetViewFullscreen(ctx context.Context, id int, fullscreen bool) error
	SetViewAlpha(ctx context.Context, id int, alpha float64) error
	ListOutputs(ctx context.Context) ([]compositor.Output, error)
	GetFocusedOutput(ctx context.Context) (compositor.Output, error)
	GetOutputGeometry(ctx context.Context, id int) (compositor.Geometry, error)
	SetWorkspace(ctx context.Context, x, y int, viewID *int) error
	ScaleToggle(ctx context.Context) error
	ToggleExpo(ctx context.Context) error
	RegisterBinding(ctx context.Context, b compositor.Binding) error
	GetOptionValue(ctx context.Context, key string) (any, error)
	SetOptionValues(ctx context.Context, values map[string]any) error
	RegisterCommand(name string, handler compositor.CommandHandler) error
}

// SchedulerAccessor is the three-way concurrency surface a module
// receives, per §4.H and §5. Every handle returned is tracked by the
// caller onto the given ModuleInstance so disable can reclaim it.
type SchedulerAccessor interface {
	RunInThread(owner *ModuleInstance, fn func(stop <-chan struct{}))
	RunInAsyncTask(owner *ModuleInstance, fn func(ctx context.Context)) TaskHandle
	ScheduleInUIThread(fn func())
	ScheduleTimer(owner *ModuleInstance, interval time.Duration, fn func()) TimerHandle
}

// Notifier sends a fire-and-forget desktop notification, per §4.H.
type Notifier interface {
	NotifySend(title, message, icon string, hints map[string]any)
}

// CommandRunner runs an external command detached from the UI thread,
// per §4.H.
type CommandRunner interface {
	Run(argv []string) error
}

// Helpers is the small set of UI primitives the runtime facilities expose
// so modules don't import the UI layer directly, per §4.H. The concrete
// set is intentionally minimal; the UI layer abstraction fills it in.
type Helpers interface {
	SetCursor(name string)
	IconPath(name string, size int) (string, bool)
}

// Host is the HostHandle passed to every module's factory. It exposes the
// minimum surface named in spec §4.H and the service-locator pattern the
// teacher repo uses (RegisterService/Service) for anything not promoted
// to a first-class field.
type Host struct {
	Logger    *slog.Logger
	Config    ConfigAccessor
	IPC       IPCAccessor
	Events    EventPublisher
	Regions   RegionAttacher
	Scheduler SchedulerAccessor
	Notifier  Notifier
	Cmd       CommandRunner
	Helpers   Helpers

	DataDir   string
	ConfigDir string

	parentLogger *slog.Logger

	mu       sync.RWMutex
	services map[string]any
	modules  map[ModuleIdentifier]*ModuleInstance
}

// NewHost creates a root Host. Facility fields may be nil at construction
// time and filled in by the Host Application as each collaborator comes
// up; modules are only constructed after every facility is wired.
func NewHost(logger *slog.Logger, dataDir, configDir string) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		Logger:       logger,
		parentLogger: logger,
		DataDir:      dataDir,
		ConfigDir:    configDir,
		services:     make(map[string]any),
		modules:      make(map[ModuleIdentifier]*ModuleInstance),
	}
}

// ForModule returns a copy of the Host scoped to one module: same
// collaborators, a module-tagged logger.
func (h *Host) ForModule(id ModuleIdentifier) *Host {
	cp := *h
	cp.Logger = h.parentLogger.With("module", string(id))
	return &cp
}

// RegisterService publishes a value under a string key for cross-cutting
// discovery, mirroring the teacher's appCtx.RegisterService convention.
func (h *Host) RegisterService(name string, svc any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.services[name] = svc
}

// Service looks up a previously registered value.
func (h *Host) Service(name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[name]
	return svc, ok
}

// registerInstance and GetModule implement the cross-module lookup
// resolved in spec §9: access MUST go through host.GetModule(name), which
// returns false if the target is not Enabled.
func (h *Host) registerInstance(inst *ModuleInstance) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modules[inst.ID] = inst
}

// GetModule returns the running Module for id if, and only if, it is
// currently Enabled.
func (h *Host) GetModule(id ModuleIdentifier) (Module, bool) {
	h.mu.RLock()
	inst, ok := h.modules[id]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	state, _, _ := inst.State()
	if state != StateEnabled {
		return nil, false
	}
	return inst.Module, true
}

// Instance exposes the ModuleInstance bookkeeping record for id, used by
// facilities (scheduler, events) that need to track resources against it.
func (h *Host) Instance(id ModuleIdentifier) (*ModuleInstance, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	inst, ok := h.modules[id]
	return inst, ok
}

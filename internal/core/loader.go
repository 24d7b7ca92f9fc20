package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Loader drives one module through its full lifecycle: construct, OnStart,
// widget attach, OnEnable, and the mirrored teardown on disable or reload.
// It is the orchestration point named in spec §4.F: Registry and Resolve
// only plan; Loader executes the plan against a Host.
type Loader struct {
	host     *Host
	registry *Registry
	logger   *slog.Logger

	// threadGrace bounds how long disable waits for each run_in_thread
	// worker to exit before proceeding anyway, per §5.
	threadGrace time.Duration

	mu        sync.Mutex
	instances map[ModuleIdentifier]*ModuleInstance
}

// NewLoader creates a Loader bound to host and registry.
func NewLoader(host *Host, registry *Registry, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		host:        host,
		registry:    registry,
		logger:      logger.With("component", "loader"),
		threadGrace: 5 * time.Second,
		instances:   make(map[ModuleIdentifier]*ModuleInstance),
	}
}

// LoadAll resolves the dependency plan over every registered module and
// loads it in order, stopping at no particular module. Modules the
// resolver excludes (missing or disabled dependencies, cycles) are
// recorded as Failed before loading starts. A module that fails during
// Load is marked Failed on its own; the rest of the order, including its
// dependents, is still loaded.
func (l *Loader) LoadAll(enabledOverride map[ModuleIdentifier]bool) Plan {
	plan := Resolve(l.registry.All(), enabledOverride)

	for _, entry := range plan.Failures {
		inst := NewModuleInstance(entry.ID, entry.Metadata)
		inst.setFailed(entry.Reason, entry.Cause)
		l.mu.Lock()
		l.instances[entry.ID] = inst
		l.mu.Unlock()
		l.logger.Warn("module excluded from load", "id", entry.ID, "reason", entry.Reason, "cause", entry.Cause)
	}

	for _, entry := range plan.LoadOrder {
		if err := l.Load(entry.ID); err != nil {
			l.logger.Error("module failed to load", "id", entry.ID, "error", err)
		}
	}
	return plan
}

// Load constructs, starts, attaches, and enables a single module that the
// Registry already knows about. On any failure the instance is left in
// StateFailed with a reason and the module is never exposed via
// Host.GetModule.
func (l *Loader) Load(id ModuleIdentifier) error {
	meta, src, ok := l.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}

	inst := NewModuleInstance(id, meta)
	inst.setState(StateLoading)
	l.mu.Lock()
	l.instances[id] = inst
	l.mu.Unlock()

	scopedHost := l.host.ForModule(id)

	factory := src.Factory()
	mod, err := factory(scopedHost)
	if err != nil {
		inst.setFailed(ReasonModuleStartup, "")
		return fmt.Errorf("%w: constructing %s: %v", ErrModuleStartup, id, err)
	}
	inst.Module = mod
	inst.TrackUnsubscribeAll(func() { l.host.Events.UnsubscribeAll(id) })

	if starter, ok := mod.(Starter); ok {
		if err := starter.OnStart(); err != nil {
			inst.setFailed(ReasonModuleStartup, "")
			return fmt.Errorf("%w: starting %s: %v", ErrModuleStartup, id, err)
		}
	}

	if ts, ok := mod.(TopicSubscriber); ok {
		for topic, handler := range ts.Topics() {
			l.host.Events.Subscribe(topic, handler, id)
		}
	}

	if meta.HasUI() {
		if provider, ok := mod.(WidgetProvider); ok {
			widget, mode := provider.MainWidget()
			if err := l.host.Regions.Attach(meta.Container, id, widget, mode, meta.Index); err != nil {
				inst.setFailed(ReasonRegionAttachFailed, "")
				return fmt.Errorf("%w: attaching %s to %s: %v", ErrRegionAttach, id, meta.Container, err)
			}
			inst.SetWidget(widget, mode)
		}
	}

	if enabler, ok := mod.(Enabler); ok {
		if err := enabler.OnEnable(); err != nil {
			inst.setFailed(ReasonModuleStartup, "")
			return fmt.Errorf("%w: enabling %s: %v", ErrModuleStartup, id, err)
		}
	}

	inst.setState(StateEnabled)
	l.host.registerInstance(inst)
	l.logger.Info("module enabled", "id", id)
	return nil
}

// Disable tears a running module down in the mirror order of Load:
// OnDisable, unsubscribe everything, cancel tasks/timers/threads (bounded
// by threadGrace), detach the widget, then StateDisabled. It is a no-op if
// the module is not currently Enabled.
func (l *Loader) Disable(id ModuleIdentifier) error {
	l.mu.Lock()
	inst, ok := l.instances[id]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}

	state, _, _ := inst.State()
	if state != StateEnabled {
		return nil
	}

	if disabler, ok := inst.Module.(Disabler); ok {
		if err := disabler.OnDisable(); err != nil {
			l.logger.Warn("module OnDisable returned error, continuing teardown", "id", id, "error", err)
		}
	}

	threadDones := inst.releaseTracked()
	for _, done := range threadDones {
		if done == nil {
			continue
		}
		timer := time.NewTimer(l.threadGrace)
		select {
		case <-done:
			timer.Stop()
		case <-timer.C:
			l.logger.Warn("module thread did not exit within grace period", "id", id)
		}
	}

	if widget, _, hasWidget := inst.Widget(); hasWidget {
		_ = widget
		l.host.Regions.Detach(inst.Metadata.Container, id)
	}

	if stopper, ok := inst.Module.(Stopper); ok {
		if err := stopper.OnStop(); err != nil {
			l.logger.Warn("module OnStop returned error", "id", id, "error", err)
		}
	}

	inst.setState(StateDisabled)
	l.logger.Info("module disabled", "id", id)
	return nil
}

// Reload disables a running module (if enabled) and loads it again from
// the registry's current source, then calls OnReload on the new instance
// once it has been enabled.
func (l *Loader) Reload(id ModuleIdentifier) error {
	if _, ok := l.instances[id]; ok {
		if err := l.Disable(id); err != nil {
			return err
		}
	}
	if err := l.Load(id); err != nil {
		return err
	}
	l.mu.Lock()
	inst := l.instances[id]
	l.mu.Unlock()
	if reloader, ok := inst.Module.(Reloader); ok {
		if err := reloader.OnReload(); err != nil {
			l.logger.Warn("module OnReload returned error", "id", id, "error", err)
		}
	}
	return nil
}

// Instance returns the Loader's bookkeeping record for id.
func (l *Loader) Instance(id ModuleIdentifier) (*ModuleInstance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, ok := l.instances[id]
	return inst, ok
}

// Package core provides the module host foundation for waypanel: module
// identity, metadata, the dependency-ordered loader, and the HostHandle
// surface modules use to reach the rest of the runtime.
package core

import "fmt"

// ModuleIdentifier is the opaque, dotted-form identifier of a module
// (e.g. "org.waypanel.plugin.taskbar"). It is unique across the process.
type ModuleIdentifier string

// ModuleKind distinguishes modules that contribute panel UI from modules
// that run purely in the background.
type ModuleKind string

const (
	KindUI         ModuleKind = "ui"
	KindBackground ModuleKind = "background"
)

// BackgroundContainer is the sentinel container value used by modules with
// no panel widget.
const BackgroundContainer = "background"

// AttachMode selects how a module's main widget is attached to its region.
type AttachMode string

const (
	// AttachAppend inserts the widget as a child of the region's container.
	AttachAppend AttachMode = "append"
	// AttachSetContent replaces the region's root child with the widget.
	AttachSetContent AttachMode = "set_content"
)

// WidgetHandle is an opaque reference to a UI-layer widget. The core never
// creates, inspects, or destroys these; it only moves them between regions.
type WidgetHandle any

// ModuleMetadata is the immutable record a module's metadata function
// returns. To change metadata, the source must be reloaded.
type ModuleMetadata struct {
	ID          ModuleIdentifier
	Name        string
	Version     string
	Enabled     bool
	Container   string // panel region name, BackgroundContainer, or "" (no UI)
	Index       int
	Priority    int
	Deps        []ModuleIdentifier
	Description string
}

// HasUI reports whether this module contributes a panel widget.
func (m ModuleMetadata) HasUI() bool {
	return m.Container != "" && m.Container != BackgroundContainer
}

func (m ModuleMetadata) validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: empty module id", ErrModuleMetadata)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: module %s: empty name", ErrModuleMetadata, m.ID)
	}
	return nil
}

// MetadataFunc is the cheap, side-effect-free half of a module source. It
// MUST NOT import heavy dependencies or touch the network — the Resolver
// calls it to plan load order before anything is instantiated.
type MetadataFunc func(host *Host) ModuleMetadata

// ModuleFactory constructs a running Module instance. Returned by a
// module source's factory entry point.
type ModuleFactory func(host *Host) (Module, error)

// Module is the interface every loadable unit implements. All lifecycle
// methods beyond the constructor are optional; a module expresses interest
// in a given lifecycle step by implementing the matching interface below.
type Module interface {
	// Metadata returns this instance's own view of its metadata, primarily
	// so the loader can read Container/Index for widget attachment without
	// holding on to the original MetadataFunc result.
	Metadata() ModuleMetadata
}

// Starter is implemented by modules that need one-shot setup: registering
// settings hints, subscribing to events, building UI. Called once, after
// construction.
type Starter interface {
	OnStart() error
}

// Enabler is implemented by modules that need a post-attach activation
// step, run after the widget (if any) has been handed to the region
// registry.
type Enabler interface {
	OnEnable() error
}

// Disabler is implemented by modules that need to release resources
// before their subscriptions, threads, and widget are torn down.
type Disabler interface {
	OnDisable() error
}

// Stopper is implemented by modules that need a final teardown hook once
// disable has completed (mirrors the teacher's on_stop design note).
type Stopper interface {
	OnStop() error
}

// Reloader is implemented by modules that want a chance to react to a
// fresh ModuleInstance taking over for a reloaded source (on_reload).
type Reloader interface {
	OnReload() error
}

// WidgetProvider is implemented by modules with UI: it exposes the main
// widget and the attach mode the Loader hands to the Panel Region
// Registry once OnStart succeeds.
type WidgetProvider interface {
	MainWidget() (WidgetHandle, AttachMode)
}

// ModuleSource describes where a module's code lives and how to reach its
// two entry points, without owning a running instance.
type ModuleSource struct {
	Path     string
	Kind     ModuleKind
	Metadata MetadataFunc
	Factory  func() ModuleFactory
}

// State is a ModuleInstance's position in the lifecycle state machine
// described in spec §3.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
	StateFailed   State = "failed"
)

// FailureReason classifies why a ModuleInstance is in StateFailed.
type FailureReason string

const (
	ReasonNone               FailureReason = ""
	ReasonMissingDependency  FailureReason = "missing_dependency"
	ReasonDependencyCycle    FailureReason = "dependency_cycle"
	ReasonModuleMetadata     FailureReason = "module_metadata"
	ReasonModuleStartup      FailureReason = "module_startup"
	ReasonRegionAttachFailed FailureReason = "region_attach_error"
)

// Package testutil holds exported test doubles shared across package
// boundaries, following the teacher's <pkg>test convention
// (hooktest, channeltest, providertest): one support package per
// concern, not one grab-bag.
package testutil

import (
	"context"
	"sync"

	"github.com/waypanel/waypanel/internal/compositor"
	"github.com/waypanel/waypanel/internal/core"
)

var _ core.IPCAccessor = (*FakeIPC)(nil)

// FakeIPC implements core.IPCAccessor plus the OnConnect/OnDisconnect
// lifecycle hooks *ipc.Client exposes, so tests exercising compositor
// lifecycle wiring (e.g. internal/host) don't need a real Unix socket
// or a running compositor. Outputs and Views are set directly by the
// test; every other method is a no-op stub returning zero values.
type FakeIPC struct {
	Outputs []compositor.Output
	Views   []compositor.View

	mu           sync.Mutex
	onConnect    func()
	onDisconnect func()

	commandsMu sync.Mutex
	commands   map[string]compositor.CommandHandler
}

// NewFakeIPC creates an empty FakeIPC.
func NewFakeIPC() *FakeIPC {
	return &FakeIPC{commands: make(map[string]compositor.CommandHandler)}
}

// OnConnect/OnDisconnect record the callbacks a real *ipc.Client would
// invoke on (re)connect; TriggerConnect/TriggerDisconnect fire them
// from a test.
func (f *FakeIPC) OnConnect(fn func())    { f.mu.Lock(); f.onConnect = fn; f.mu.Unlock() }
func (f *FakeIPC) OnDisconnect(fn func()) { f.mu.Lock(); f.onDisconnect = fn; f.mu.Unlock() }

func (f *FakeIPC) TriggerConnect() {
	f.mu.Lock()
	fn := f.onConnect
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *FakeIPC) TriggerDisconnect() {
	f.mu.Lock()
	fn := f.onDisconnect
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *FakeIPC) ListViews(ctx context.Context) ([]compositor.View, error) { return f.Views, nil }

func (f *FakeIPC) GetView(ctx context.Context, id int) (compositor.View, error) {
	for _, v := range f.Views {
		if v.ID == id {
			return v, nil
		}
	}
	return compositor.View{}, nil
}

func (f *FakeIPC) GetFocusedView(ctx context.Context) (compositor.View, error) {
	for _, v := range f.Views {
		if v.Activated {
			return v, nil
		}
	}
	return compositor.View{}, nil
}

func (f *FakeIPC) CloseView(ctx context.Context, id int) error                     { return nil }
func (f *FakeIPC) SetFocus(ctx context.Context, id int) error                      { return nil }
func (f *FakeIPC) ConfigureView(ctx context.Context, id, x, y, w, h int, outputID *int) error {
	return nil
}
func (f *FakeIPC) SetViewFullscreen(ctx context.Context, id int, fullscreen bool) error { return nil }
func (f *FakeIPC) SetViewAlpha(ctx context.Context, id int, alpha float64) error        { return nil }

func (f *FakeIPC) ListOutputs(ctx context.Context) ([]compositor.Output, error) {
	return f.Outputs, nil
}

func (f *FakeIPC) GetFocusedOutput(ctx context.Context) (compositor.Output, error) {
	for _, o := range f.Outputs {
		if !o.Disabled {
			return o, nil
		}
	}
	return compositor.Output{}, nil
}

func (f *FakeIPC) GetOutputGeometry(ctx context.Context, id int) (compositor.Geometry, error) {
	for _, o := range f.Outputs {
		if o.ID == id {
			return o.Geometry, nil
		}
	}
	return compositor.Geometry{}, nil
}

func (f *FakeIPC) SetWorkspace(ctx context.Context, x, y int, viewID *int) error { return nil }
func (f *FakeIPC) ScaleToggle(ctx context.Context) error                        { return nil }
func (f *FakeIPC) ToggleExpo(ctx context.Context) error                         { return nil }
func (f *FakeIPC) RegisterBinding(ctx context.Context, b compositor.Binding) error { return nil }
func (f *FakeIPC) GetOptionValue(ctx context.Context, key string) (any, error)   { return nil, nil }
func (f *FakeIPC) SetOptionValues(ctx context.Context, values map[string]any) error { return nil }

func (f *FakeIPC) RegisterCommand(name string, handler compositor.CommandHandler) error {
	f.commandsMu.Lock()
	defer f.commandsMu.Unlock()
	f.commands[name] = handler
	return nil
}

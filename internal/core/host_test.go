package core

import "testing"

func TestHostRegisterServiceAndLookup(t *testing.T) {
	h := NewHost(nil, t.TempDir(), t.TempDir())
	h.RegisterService("clock.formatter", 42)

	v, ok := h.Service("clock.formatter")
	if !ok || v != 42 {
		t.Fatalf("expected registered service to round-trip, got %v ok=%v", v, ok)
	}

	if _, ok := h.Service("nonexistent"); ok {
		t.Fatal("expected lookup of unregistered service to fail")
	}
}

func TestHostGetModuleOnlyWhenEnabled(t *testing.T) {
	h := NewHost(nil, t.TempDir(), t.TempDir())
	inst := NewModuleInstance("org.waypanel.plugin.clock", ModuleMetadata{ID: "org.waypanel.plugin.clock"})
	inst.Module = &fakeModule{id: "org.waypanel.plugin.clock"}
	h.registerInstance(inst)

	if _, ok := h.GetModule("org.waypanel.plugin.clock"); ok {
		t.Fatal("expected GetModule to report false before the instance is Enabled")
	}

	inst.setState(StateEnabled)
	mod, ok := h.GetModule("org.waypanel.plugin.clock")
	if !ok || mod.Metadata().ID != "org.waypanel.plugin.clock" {
		t.Fatalf("expected enabled module to be retrievable, got %v ok=%v", mod, ok)
	}

	inst.setState(StateDisabled)
	if _, ok := h.GetModule("org.waypanel.plugin.clock"); ok {
		t.Fatal("expected GetModule to report false once disabled")
	}
}

func TestHostForModuleScopesLogger(t *testing.T) {
	h := NewHost(nil, t.TempDir(), t.TempDir())
	scoped := h.ForModule("org.waypanel.plugin.taskbar")
	if scoped.Logger == h.Logger {
		t.Fatal("expected ForModule to produce a distinct module-scoped logger")
	}
}

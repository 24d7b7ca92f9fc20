package panel

import (
	"reflect"
	"testing"

	"github.com/waypanel/waypanel/internal/core"
)

func TestAttachOrdersByIndexThenInsertion(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterRegion("top-panel-left", Horizontal)

	mustAttach(t, reg, "top-panel-left", "mod-b", "widget-b", core.AttachAppend, 5)
	mustAttach(t, reg, "top-panel-left", "mod-a", "widget-a", core.AttachAppend, 1)
	mustAttach(t, reg, "top-panel-left", "mod-c", "widget-c", core.AttachAppend, 5)

	r, _ := reg.Region("top-panel-left")
	got := r.Owners()
	want := []core.ModuleIdentifier{"mod-a", "mod-b", "mod-c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected index-then-insertion order %v, got %v", want, got)
	}
}

func TestDetachRemovesOnlyOwnedWidgets(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterRegion("top-panel-center", Horizontal)
	mustAttach(t, reg, "top-panel-center", "mod-a", "wa", core.AttachAppend, 0)
	mustAttach(t, reg, "top-panel-center", "mod-b", "wb", core.AttachAppend, 1)

	reg.Detach("top-panel-center", "mod-a")

	r, _ := reg.Region("top-panel-center")
	got := r.Owners()
	want := []core.ModuleIdentifier{"mod-b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected only mod-b left, got %v", got)
	}
}

func TestAttachDetachRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterRegion("background", Horizontal)
	before := regionSnapshot(reg, "background")

	mustAttach(t, reg, "background", "mod-a", "wa", core.AttachAppend, 0)
	reg.Detach("background", "mod-a")

	after := regionSnapshot(reg, "background")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("expected region to return to prior state, before=%v after=%v", before, after)
	}
}

func TestSetContentReplacesExistingChildren(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterRegion("top-panel", Horizontal)
	mustAttach(t, reg, "top-panel", "mod-a", "wa", core.AttachAppend, 0)
	mustAttach(t, reg, "top-panel", "mod-b", "wb", core.AttachSetContent, 0)

	r, _ := reg.Region("top-panel")
	got := r.Owners()
	want := []core.ModuleIdentifier{"mod-b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected set_content to replace all children, got %v", got)
	}
}

func TestAttachUnknownRegionErrors(t *testing.T) {
	reg := NewRegistry()
	err := reg.Attach("nonexistent", "mod-a", "wa", core.AttachAppend, 0)
	if err == nil {
		t.Fatal("expected error attaching to an unregistered region")
	}
}

func TestOverflowDivertsWhenConfigured(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterRegion("top-panel-systray", Horizontal)
	reg.RegisterRegion("top-panel-after-systray", Horizontal)
	reg.SetOverflow("top-panel-systray", "top-panel-after-systray")

	diverted := reg.Overflow("top-panel-systray", "overflow-widget")
	if !diverted {
		t.Fatal("expected overflow to divert when configured")
	}

	after, _ := reg.Region("top-panel-after-systray")
	if got := after.count(); got != 1 {
		t.Fatalf("expected overflow widget in after-systray region, count=%d", got)
	}
}

func TestOverflowPassesThroughWhenUnconfigured(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterRegion("top-panel-systray", Horizontal)

	if reg.Overflow("top-panel-systray", "w") {
		t.Fatal("expected pass-through (false) when no overflow region is configured")
	}
}

func TestRegionNamesClosedSet(t *testing.T) {
	top := RegionNames(EdgeTop)
	want := []string{
		"top-panel", "top-panel-left", "top-panel-box-widgets-left",
		"top-panel-center", "top-panel-right", "top-panel-systray",
		"top-panel-after-systray",
	}
	if !reflect.DeepEqual(top, want) {
		t.Fatalf("top edge region names mismatch: got %v want %v", top, want)
	}

	left := RegionNames(EdgeLeft)
	wantLeft := []string{"left-panel-top", "left-panel-center", "left-panel-bottom"}
	if !reflect.DeepEqual(left, wantLeft) {
		t.Fatalf("left edge region names mismatch: got %v want %v", left, wantLeft)
	}
}

func mustAttach(t *testing.T, reg *Registry, region string, module core.ModuleIdentifier, widget core.WidgetHandle, mode core.AttachMode, index int) {
	t.Helper()
	if err := reg.Attach(region, module, widget, mode, index); err != nil {
		t.Fatalf("Attach(%s, %s): %v", region, module, err)
	}
}

func regionSnapshot(reg *Registry, name string) []core.ModuleIdentifier {
	r, _ := reg.Region(name)
	return r.Owners()
}

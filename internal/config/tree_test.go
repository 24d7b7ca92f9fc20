package config

import "testing"

func TestTreeSetGet(t *testing.T) {
	tr := make(Tree)
	tr.Set("panels.top.size", 32)

	v, ok := tr.Get("panels.top.size")
	if !ok {
		t.Fatal("expected value present")
	}
	if v != 32 {
		t.Fatalf("expected 32, got %v", v)
	}
}

func TestTreeGetMissing(t *testing.T) {
	tr := make(Tree)
	if _, ok := tr.Get("nope.nothing"); ok {
		t.Fatal("expected missing path to report not found")
	}
}

func TestTreeOverwriteIntermediate(t *testing.T) {
	tr := make(Tree)
	tr.Set("a", "scalar")
	tr.Set("a.b", 1)

	v, ok := tr.Get("a.b")
	if !ok || v != 1 {
		t.Fatalf("expected a.b=1 after overwriting scalar intermediate, got %v ok=%v", v, ok)
	}
}

func TestTreeRemove(t *testing.T) {
	tr := make(Tree)
	tr.Set("panels.top.size", 32)
	tr.Remove("panels.top.size")

	if _, ok := tr.Get("panels.top.size"); ok {
		t.Fatal("expected path removed")
	}
	if _, ok := tr.Get("panels.top"); !ok {
		t.Fatal("expected sibling table to survive removal")
	}
}

func TestTreeCloneIsIndependent(t *testing.T) {
	tr := make(Tree)
	tr.Set("panels.top.size", 32)

	clone := tr.Clone()
	tr.Set("panels.top.size", 40)

	v, ok := clone.Get("panels.top.size")
	if !ok || v != 32 {
		t.Fatalf("expected clone to retain original value 32, got %v ok=%v", v, ok)
	}
}

func TestTreeGetPath(t *testing.T) {
	tr := make(Tree)
	tr.SetPath([]string{"org", "waypanel", "panel"}, map[string]any{"theme": "dark"})

	v, ok := tr.GetPath([]string{"org", "waypanel", "panel"})
	if !ok {
		t.Fatal("expected value present")
	}
	table, ok := v.(map[string]any)
	if !ok || table["theme"] != "dark" {
		t.Fatalf("unexpected value: %#v", v)
	}
}

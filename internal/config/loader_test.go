package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadExpandsEnvWithDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[org.waypanel.panel]\ntheme = \"${PANEL_THEME:-dark}\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tree, err := load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := tree.Get("org.waypanel.panel.theme")
	if !ok || v != "dark" {
		t.Fatalf("expected default theme 'dark', got %v ok=%v", v, ok)
	}
}

func TestLoadExpandsEnvFromEnvironment(t *testing.T) {
	t.Setenv("WAYPANEL_TEST_THEME", "light")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[org.waypanel.panel]\ntheme = \"${WAYPANEL_TEST_THEME}\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tree, err := load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := tree.Get("org.waypanel.panel.theme")
	if v != "light" {
		t.Fatalf("expected env-sourced theme 'light', got %v", v)
	}
}

func TestLoadUnresolvedVariableErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[org.waypanel.panel]\ntheme = \"${WAYPANEL_UNSET_VAR}\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := load(path); err == nil {
		t.Fatal("expected error for unresolved variable")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !isNotExist(err) {
		t.Fatalf("expected os.ErrNotExist-compatible error, got %v", err)
	}
}

func TestSaveIsAtomicAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	tree := make(Tree)
	tree.Set("panels.top.size", 40)

	if err := save(path, tree); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected save to leave exactly one file behind, got %d", len(entries))
	}

	reloaded, err := load(path)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	v, ok := reloaded.Get("panels.top.size")
	if !ok || v != int64(40) {
		t.Fatalf("expected round-tripped value 40, got %v ok=%v", v, ok)
	}
}

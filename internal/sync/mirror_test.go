package pluginsync

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMirrorCopiesTreeAndDeletesStale(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "a.py"), "one")
	writeFile(t, filepath.Join(src, "sub", "b.py"), "two")
	writeFile(t, filepath.Join(dst, "stale.py"), "remove me")

	if err := Mirror(src, dst); err != nil {
		t.Fatal(err)
	}

	if got, err := os.ReadFile(filepath.Join(dst, "a.py")); err != nil || string(got) != "one" {
		t.Fatalf("expected a.py mirrored, got %q err %v", got, err)
	}
	if got, err := os.ReadFile(filepath.Join(dst, "sub", "b.py")); err != nil || string(got) != "two" {
		t.Fatalf("expected sub/b.py mirrored, got %q err %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dst, "stale.py")); !os.IsNotExist(err) {
		t.Fatal("expected stale.py to be removed from the mirror")
	}
}

func TestMirrorNeverModifiesSource(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	path := filepath.Join(src, "a.py")
	writeFile(t, path, "untouched")

	if err := Mirror(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil || string(got) != "untouched" {
		t.Fatalf("expected source left untouched, got %q err %v", got, err)
	}
}

func TestMirrorSkipsIgnoredDirectories(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "keep", "a.py"), "1")
	writeFile(t, filepath.Join(src, "ignored", "b.py"), "2")
	writeFile(t, filepath.Join(src, "ignored", MarkerFile), "")
	writeFile(t, filepath.Join(src, ".git", "HEAD"), "ref")

	if err := Mirror(src, dst); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dst, "ignored")); !os.IsNotExist(err) {
		t.Fatal("expected marked directory to be excluded from the mirror")
	}
	if _, err := os.Stat(filepath.Join(dst, ".git")); !os.IsNotExist(err) {
		t.Fatal("expected .git to be excluded from the mirror")
	}
	if _, err := os.Stat(filepath.Join(dst, "keep", "a.py")); err != nil {
		t.Fatalf("expected keep/a.py mirrored: %v", err)
	}
}

package pluginsync

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestHashStableForUnchangedTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "print(1)")
	writeFile(t, filepath.Join(root, "sub", "b.py"), "print(2)")

	h1, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("expected stable hash for unchanged tree")
	}
}

func TestHashChangesOnContentEdit(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	writeFile(t, path, "print(1)")

	before, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}

	// Force a distinct mtime; some filesystems have 1s mtime resolution.
	future := time.Now().Add(2 * time.Second)
	writeFile(t, path, "print(2)")
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	after, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Fatal("expected hash to change after content + mtime edit")
	}
}

func TestHashIgnoresMarkedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "a.py"), "1")
	writeFile(t, filepath.Join(root, "ignored", "b.py"), "2")
	writeFile(t, filepath.Join(root, "ignored", MarkerFile), "")

	h1, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}

	// Editing a file inside the ignored subtree must not move the hash.
	writeFile(t, filepath.Join(root, "ignored", "b.py"), "3")
	h2, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("expected marked directory to be excluded from the hash")
	}
}

func TestHashIgnoresCacheDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "a.py"), "1")

	h1, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(root, "__pycache__", "a.pyc"), "binary")
	h2, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("expected cache directory to be excluded from the hash")
	}
}

func TestHashIgnoresDirectoryMtimeJitter(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	writeFile(t, filepath.Join(sub, "a.py"), "1")

	h1, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}

	// Touch just the directory's mtime without touching its contents.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(sub, future, future); err != nil {
		t.Fatal(err)
	}

	h2, err := Hash(root)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("expected directory mtime changes to be excluded from the hash")
	}
}

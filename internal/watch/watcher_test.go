package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := New(nil, debounce)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func createEvent(path string) fsnotify.Event { return fsnotify.Event{Name: path, Op: fsnotify.Create} }
func writeEvent(path string) fsnotify.Event  { return fsnotify.Event{Name: path, Op: fsnotify.Write} }
func removeEvent(path string) fsnotify.Event { return fsnotify.Event{Name: path, Op: fsnotify.Remove} }

func TestMergeOpsCreateThenRemoveCollapsesToRemove(t *testing.T) {
	if got := mergeOps(OpCreate, OpRemove); got != OpRemove {
		t.Fatalf("expected create+remove to merge to remove, got %v", got)
	}
}

func TestMergeOpsCreateThenWriteStaysCreate(t *testing.T) {
	if got := mergeOps(OpCreate, OpWrite); got != OpCreate {
		t.Fatalf("expected create+write to stay create, got %v", got)
	}
}

func TestMergeOpsWriteThenRemoveCollapsesToRemove(t *testing.T) {
	if got := mergeOps(OpWrite, OpRemove); got != OpRemove {
		t.Fatalf("expected write+remove to merge to remove, got %v", got)
	}
}

func TestMergeOpsWriteThenWriteStaysWrite(t *testing.T) {
	if got := mergeOps(OpWrite, OpWrite); got != OpWrite {
		t.Fatalf("expected write+write to stay write, got %v", got)
	}
}

func TestHandleDebouncesRapidWritesIntoOneEvent(t *testing.T) {
	w := newTestWatcher(t, 30*time.Millisecond)

	path := "/tmp/watcher-test/a.toml"
	w.handle(writeEvent(path))
	w.handle(writeEvent(path))
	w.handle(writeEvent(path))

	select {
	case ev := <-w.Events():
		if ev.Path != path || ev.Op != OpWrite {
			t.Fatalf("unexpected coalesced event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced event")
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("expected exactly one coalesced event, got extra: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleMergesCreateWriteRemoveIntoRemove(t *testing.T) {
	w := newTestWatcher(t, 30*time.Millisecond)

	path := "/tmp/watcher-test/b.toml"
	w.handle(createEvent(path))
	w.handle(writeEvent(path))
	w.handle(removeEvent(path))

	select {
	case ev := <-w.Events():
		if ev.Op != OpRemove {
			t.Fatalf("expected merged op Remove, got %v", ev.Op)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced event")
	}
}

func TestHandleTracksDistinctPathsIndependently(t *testing.T) {
	w := newTestWatcher(t, 30*time.Millisecond)

	a := "/tmp/watcher-test/c.toml"
	b := "/tmp/watcher-test/d.toml"
	w.handle(createEvent(a))
	w.handle(createEvent(b))

	seen := make(map[string]Op)
	for i := 0; i < 2; i++ {
		select {
		case ev := <-w.Events():
			seen[ev.Path] = ev.Op
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for both debounced events")
		}
	}
	if seen[a] != OpCreate || seen[b] != OpCreate {
		t.Fatalf("expected both paths reported as create, got %+v", seen)
	}
}

func TestAddFileWatchesParentDirectory(t *testing.T) {
	w := newTestWatcher(t, time.Second)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.AddFile(path); err != nil {
		t.Fatal(err)
	}
}

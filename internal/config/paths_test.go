package config

import "testing"

func TestXdgDirsFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_DIRS", "")
	dirs := xdgDirs("XDG_CONFIG_DIRS", "/etc/xdg")
	if len(dirs) != 1 || dirs[0] != "/etc/xdg/waypanel" {
		t.Fatalf("expected fallback to /etc/xdg/waypanel, got %v", dirs)
	}
}

func TestXdgDirsFromEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_DIRS", "/a:/b")
	dirs := xdgDirs("XDG_CONFIG_DIRS", "/etc/xdg")
	want := []string{"/a/waypanel", "/b/waypanel"}
	if len(dirs) != len(want) {
		t.Fatalf("expected %v, got %v", want, dirs)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, dirs)
		}
	}
}

func TestResolvePathsProducesConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	p, err := ResolvePaths()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ConfigFile == "" {
		t.Fatal("expected non-empty config file path")
	}
	roots := p.AllConfigRoots()
	if len(roots) == 0 || roots[0] != p.ConfigDir {
		t.Fatalf("expected config dir first in precedence order, got %v", roots)
	}
}

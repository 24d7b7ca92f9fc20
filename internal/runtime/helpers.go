package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Helpers implements core.Helpers: the small set of UI primitives kept
// here so modules don't import the UI layer directly, per §4.H. Cursor
// changes are a capability the UI layer alone can fulfill (the core has
// no window to apply a cursor to); icon lookup is real, since it is
// pure filesystem search against the XDG icon-theme layout.
type Helpers struct {
	iconThemeDirs []string
	onSetCursor   func(name string)
}

// NewHelpers creates a Helpers searching the standard hicolor/XDG icon
// locations, plus any additional theme directories from config.
func NewHelpers(extraDirs ...string) *Helpers {
	dirs := append([]string{}, extraDirs...)
	dirs = append(dirs,
		filepath.Join(xdgDataHome(), "icons"),
		"/usr/share/icons",
		"/usr/local/share/icons",
		"/usr/share/pixmaps",
	)
	return &Helpers{iconThemeDirs: dirs}
}

// OnSetCursor lets the Host Application wire SetCursor through to the UI
// layer once it exists; before that it is a no-op.
func (h *Helpers) OnSetCursor(fn func(name string)) {
	h.onSetCursor = fn
}

// SetCursor requests a cursor change. The core itself draws nothing;
// this just forwards to whatever the UI layer registered.
func (h *Helpers) SetCursor(name string) {
	if h.onSetCursor != nil {
		h.onSetCursor(name)
	}
}

// IconPath searches each configured icon-theme directory for name under
// hicolor/<size>x<size>/apps, then hicolor/scalable/apps, then directly
// in the directory itself (e.g. pixmaps), returning the first match.
// Other sizes are not searched.
func (h *Helpers) IconPath(name string, size int) (string, bool) {
	exts := []string{".svg", ".png", ".xpm"}
	sizeDirs := []string{
		strconv.Itoa(size) + "x" + strconv.Itoa(size),
		"scalable",
	}

	for _, base := range h.iconThemeDirs {
		for _, sizeDir := range sizeDirs {
			for _, ext := range exts {
				candidate := filepath.Join(base, "hicolor", sizeDir, "apps", name+ext)
				if fileExists(candidate) {
					return candidate, true
				}
			}
		}
		for _, ext := range exts {
			candidate := filepath.Join(base, name+ext)
			if fileExists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func xdgDataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Sprintf("/home/%d/.local/share", os.Getuid())
	}
	return filepath.Join(home, ".local", "share")
}

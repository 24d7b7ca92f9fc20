package config

import (
	"os"
	"path/filepath"
	"strings"
)

// appName is the XDG subdirectory waypanel reserves for itself under
// every base directory it searches.
const appName = "waypanel"

// Paths resolves the user-then-system directory precedence for
// configuration and data files, per §4.A.
type Paths struct {
	ConfigDir   string   // user config dir, e.g. ~/.config/waypanel
	DataDir     string   // user data dir, e.g. ~/.local/share/waypanel
	ConfigFile  string   // ConfigDir/config.toml
	SearchPaths []string // system config search roots, lowest precedence last
	DataPaths   []string // system data search roots (module discovery), lowest precedence last
}

// ResolvePaths computes Paths from the environment, following
// os.UserConfigDir/os.UserHomeDir plus XDG_CONFIG_DIRS/XDG_DATA_DIRS for
// the system-wide search roots, falling back to /etc/xdg/waypanel and to
// /usr/local/share/waypanel then /usr/share/waypanel when those are
// unset, per SPEC_FULL §4.A.
func ResolvePaths() (Paths, error) {
	userConfig, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, err
	}
	userData, err := userDataDir()
	if err != nil {
		return Paths{}, err
	}

	p := Paths{
		ConfigDir:   filepath.Join(userConfig, appName),
		DataDir:     filepath.Join(userData, appName),
		SearchPaths: xdgDirs("XDG_CONFIG_DIRS", "/etc/xdg"),
		DataPaths:   xdgDirs("XDG_DATA_DIRS", "/usr/local/share:/usr/share"),
	}
	p.ConfigFile = filepath.Join(p.ConfigDir, "config.toml")
	return p, nil
}

func userDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

func xdgDirs(envVar, fallback string) []string {
	raw := os.Getenv(envVar)
	if raw == "" {
		raw = fallback
	}
	var out []string
	for _, dir := range strings.Split(raw, ":") {
		if dir == "" {
			continue
		}
		out = append(out, filepath.Join(dir, appName))
	}
	return out
}

// AllConfigRoots returns ConfigDir followed by SearchPaths, the
// user-then-system precedence order for config lookups. The module
// Registry scans AllDataRoots, not these roots.
func (p Paths) AllConfigRoots() []string {
	return append([]string{p.ConfigDir}, p.SearchPaths...)
}

// AllDataRoots returns DataDir followed by DataPaths, the precedence
// order the module Registry scans for filesystem plugins.
func (p Paths) AllDataRoots() []string {
	return append([]string{p.DataDir}, p.DataPaths...)
}

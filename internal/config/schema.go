package config

import (
	"sort"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// The following typed views mirror the TOML keys enumerated in spec §6
// one-for-one. They are populated on demand from the live Tree via
// Store.Decode*; nothing in Store requires callers to use them; a module
// may just as well read its own subtree with GetSetting.

// PanelChrome is the org.waypanel.panel table.
type PanelChrome struct {
	PrimaryOutput struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"primary_output"`
	Theme struct {
		Default string `mapstructure:"default"`
	} `mapstructure:"theme"`
}

// EdgeConfig is one of the panels.{top,bottom,left,right} tables.
type EdgeConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Size      int    `mapstructure:"size"`
	Exclusive bool   `mapstructure:"exclusive"`
	Position  string `mapstructure:"position"`
}

// DockbarApp is one entry of the ordered dockbar.app mapping.
type DockbarApp struct {
	Name         string `mapstructure:"name"`
	Cmd          string `mapstructure:"cmd"`
	Icon         string `mapstructure:"icon"`
	WClass       string `mapstructure:"wclass"`
	DesktopFile  string `mapstructure:"desktop_file"`
	InitialTitle string `mapstructure:"initial_title"`
}

// Folder is one entry under folders.<name>.
type Folder struct {
	Name        string `mapstructure:"name"`
	Path        string `mapstructure:"path"`
	FileManager string `mapstructure:"filemanager"`
	Icon        string `mapstructure:"icon"`
}

// CustomKeybinding is one paired binding_<n>/command_<n> entry.
type CustomKeybinding struct {
	Binding string `mapstructure:"binding"`
	Command string `mapstructure:"command"`
}

// DecodePanelChrome decodes the org.waypanel.panel table.
func (s *Store) DecodePanelChrome() (PanelChrome, error) {
	var out PanelChrome
	err := s.decode([]string{"org", "waypanel", "panel"}, &out)
	return out, err
}

// DecodeEdge decodes panels.<edge>, edge being one of
// top/bottom/left/right.
func (s *Store) DecodeEdge(edge string) (EdgeConfig, error) {
	var out EdgeConfig
	err := s.decode([]string{"panels", edge}, &out)
	return out, err
}

// DecodeDockbarApps decodes the ordered dockbar.app mapping into a slice
// in insertion order as recorded by the TOML decoder.
func (s *Store) DecodeDockbarApps() ([]DockbarApp, error) {
	v, ok := s.GetSetting([]string{"dockbar", "app"}, nil).([]any)
	if !ok {
		return nil, nil
	}
	out := make([]DockbarApp, 0, len(v))
	for _, item := range v {
		var app DockbarApp
		if err := mapstructure.Decode(item, &app); err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

// DecodeFolders decodes every folders.<name> entry.
func (s *Store) DecodeFolders() (map[string]Folder, error) {
	raw, ok := s.GetSetting([]string{"folders"}, nil).(map[string]any)
	if !ok {
		return nil, nil
	}
	out := make(map[string]Folder, len(raw))
	for name, v := range raw {
		var f Folder
		if err := mapstructure.Decode(v, &f); err != nil {
			return nil, err
		}
		out[name] = f
	}
	return out, nil
}

// SyncRoot is one external module source root under module_sync.roots,
// mirrored into the data directory by the Module Sync & Hot-Reload
// service (§4.I).
type SyncRoot struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// DecodeSyncRoots decodes the ordered module_sync.roots list.
func (s *Store) DecodeSyncRoots() ([]SyncRoot, error) {
	v, ok := s.GetSetting([]string{"module_sync", "roots"}, nil).([]any)
	if !ok {
		return nil, nil
	}
	out := make([]SyncRoot, 0, len(v))
	for _, item := range v {
		var r SyncRoot
		if err := mapstructure.Decode(item, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// DecodeCustomKeybindings decodes the paired binding_<n>/command_<n>
// entries under custom_keybindings into a deterministic slice.
func (s *Store) DecodeCustomKeybindings() ([]CustomKeybinding, error) {
	raw, ok := s.GetSetting([]string{"custom_keybindings"}, nil).(map[string]any)
	if !ok {
		return nil, nil
	}
	pairs := make(map[string]*CustomKeybinding)
	for key, v := range raw {
		str, _ := v.(string)
		n, field, ok := splitIndexedKey(key)
		if !ok {
			continue
		}
		if pairs[n] == nil {
			pairs[n] = &CustomKeybinding{}
		}
		switch field {
		case "binding":
			pairs[n].Binding = str
		case "command":
			pairs[n].Command = str
		}
	}
	keys := make([]string, 0, len(pairs))
	for n := range pairs {
		keys = append(keys, n)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	out := make([]CustomKeybinding, 0, len(pairs))
	for _, n := range keys {
		out = append(out, *pairs[n])
	}
	return out, nil
}

// splitIndexedKey splits "binding_3" into ("3", "binding").
func splitIndexedKey(key string) (index, field string, ok bool) {
	for _, prefix := range []string{"binding_", "command_"} {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return key[len(prefix):], prefix[:len(prefix)-1], true
		}
	}
	return "", "", false
}

func (s *Store) decode(path []string, out any) error {
	v := s.GetSetting(path, nil)
	if v == nil {
		return nil
	}
	return mapstructure.Decode(v, out)
}

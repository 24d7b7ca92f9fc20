package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions, carried
// over verbatim from the teacher's YAML loader: waypanel's config is
// TOML, but the env-expansion convention the teacher's operators are
// used to is preserved unchanged.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// load reads a TOML configuration file, expands environment variables,
// and parses it into a Tree. Returns ErrConfigRead for an unreadable
// file and ErrConfigParse for malformed TOML or unresolved variables.
func load(path string) (Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrConfigRead, path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: expanding variables in %s: %v", ErrConfigParse, path, err)
	}

	tree := make(Tree)
	if _, err := toml.Decode(string(expanded), &tree); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfigParse, path, err)
	}
	return tree, nil
}

// save writes tree to path atomically: encode to a temp file in the same
// directory, fsync, then rename over the target, per §6 ("Save must be
// atomic (temp-file + rename)") and the invariant in §8 that a crash
// mid-save must never leave a partial file observable.
func save(path string, tree Tree) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrConfigWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrConfigWrite, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(map[string]any(tree)); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encoding: %v", ErrConfigWrite, err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing temp file: %v", ErrConfigWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing temp file: %v", ErrConfigWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %v", ErrConfigWrite, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming into place: %v", ErrConfigWrite, err)
	}
	return nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw TOML
// bytes, returning a joined error listing every unresolved variable (no
// default, no env value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil
		defaultVal := ""
		if hasDefault {
			defaultVal = string(subs[2])
		}

		value, ok := os.LookupEnv(name)
		if ok {
			return []byte(value)
		}
		if hasDefault {
			return []byte(defaultVal)
		}
		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}

// Package pluginsync implements the Module Sync & Hot-Reload service
// (§4.I): mirroring user-configured external module source roots into a
// directory inside the installation tree, and notifying (optionally
// hot-reloading) when the mirror actually changes.
//
// Named pluginsync rather than sync so it doesn't shadow the standard
// library's sync package in files that need both.
package pluginsync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// MarkerFile, present in a directory, excludes that directory and
// everything under it from both hashing and mirroring.
const MarkerFile = ".ignore_plugins"

// cacheDirs lists directory basenames treated as build/cache output
// rather than source, skipped the same way .git is skipped.
var cacheDirs = map[string]bool{
	".git":         true,
	".cache":       true,
	"__pycache__":  true,
	"node_modules": true,
	".venv":        true,
}

// skipDir reports whether a directory entry (by basename, and by full
// path for the marker check) should be excluded from a walk.
func skipDir(fullPath, base string) bool {
	if cacheDirs[base] {
		return true
	}
	if _, err := os.Stat(filepath.Join(fullPath, MarkerFile)); err == nil {
		return true
	}
	return false
}

type hashEntry struct {
	path  string
	isDir bool
	size  int64
	mtime int64
}

// Hash computes the rolling filesystem hash for root: SHA-256 over the
// sorted (relpath, size, mtime) tuples for files and the relpath alone
// for directories, grounded on internal/bootstrap.BuildHash's
// sort-then-hash shape, extended to walk a tree rather than a flat
// plugin-name list. Directory mtimes never enter the hash, per §4.I
// ("directory mtimes are excluded to avoid jitter").
func Hash(root string) (string, error) {
	var entries []hashEntry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		base := d.Name()
		if base == MarkerFile {
			return nil
		}
		if d.IsDir() {
			if skipDir(path, base) {
				return fs.SkipDir
			}
			entries = append(entries, hashEntry{path: rel, isDir: true})
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return statErr
		}
		entries = append(entries, hashEntry{path: rel, size: info.Size(), mtime: info.ModTime().Unix()})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("pluginsync: hashing %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	h := sha256.New()
	for _, e := range entries {
		if e.isDir {
			fmt.Fprintf(h, "d:%s\n", e.path)
			continue
		}
		fmt.Fprintf(h, "f:%s:%d:%d\n", e.path, e.size, e.mtime)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

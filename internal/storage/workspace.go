// Package storage manages the compile workspace: the directory tree that
// holds compiled catalogs, manifests, simulator outputs, and run reports.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Standard subdirectories of a workspace.
const (
	CatalogDir  = "catalogs"
	ManifestDir = "manifests"
	SimDir      = "sim"
	ReportDir   = "reports"
)

// Workspace is a rooted output tree. All paths passed to its methods are
// relative to the root; anything that escapes the root is rejected.
type Workspace struct {
	root string // absolute path
}

// NewWorkspace creates (if needed) and opens a workspace rooted at dir.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace: root is not a directory: %s", abs)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Abs resolves a relative path against the root and rejects any result
// that escapes it (directory traversal).
func (w *Workspace) Abs(rel string) (string, error) {
	if rel == "" {
		return w.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("workspace: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(w.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("workspace: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, w.root+string(os.PathSeparator)) && abs != w.root {
		return "", fmt.Errorf("workspace: path escapes root: %s", rel)
	}
	return abs, nil
}

// Write atomically writes content at rel: temp file in the target
// directory, fsync, then rename. A failed write leaves nothing behind.
func (w *Workspace) Write(rel string, content []byte) error {
	abs, err := w.Abs(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("workspace: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".altair-tmp-*")
	if err != nil {
		return fmt.Errorf("workspace: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("workspace: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("workspace: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("workspace: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("workspace: rename: %w", err)
	}
	success = true
	return nil
}

// Read returns the contents of the file at rel.
func (w *Workspace) Read(rel string) ([]byte, error) {
	abs, err := w.Abs(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: read %s: %w", rel, err)
	}
	return data, nil
}

// List walks dir (relative to the root) and returns the sorted relative
// paths of every regular file with the given extension (e.g. ".yaml").
// A missing directory yields an empty list, not an error.
func (w *Workspace) List(dir, ext string) ([]string, error) {
	base, err := w.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}
	var out []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, p)
		if relErr != nil {
			return relErr
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("workspace: list %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}

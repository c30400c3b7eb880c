// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/invowk/iod/pkg/npmspec"
)

const (
	nodeModulesDir = "node_modules"
	manifestFile   = "package.json"
)

// extensions are probed, in order, when a path does not name a file.
var extensions = []string{".js", ".cjs", ".mjs", ".json"}

// FSLoader resolves packages by walking node_modules directories, following
// Node's lookup rules for bare specifiers. It does not execute package code.
type FSLoader struct {
	fs      afero.Fs
	baseDir string
}

// NewFSLoader creates a loader over fs that resolves LoadByName from baseDir.
// A nil fs means the OS filesystem.
func NewFSLoader(fs afero.Fs, baseDir string) *FSLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FSLoader{fs: fs, baseDir: baseDir}
}

// LoadByName resolves importPath from the node_modules directories above baseDir.
func (l *FSLoader) LoadByName(ctx context.Context, importPath string) (*Module, error) {
	mod, err := l.load(ctx, lookupPaths(l.baseDir), l.baseDir, importPath)
	if err != nil {
		return nil, err
	}
	mod.Source = SourceLocal
	return mod, nil
}

// LoadFromDirectory resolves importPath with dir as the first node_modules
// directory consulted.
func (l *FSLoader) LoadFromDirectory(ctx context.Context, dir, importPath string) (*Module, error) {
	var roots []string
	if filepath.Base(dir) == nodeModulesDir {
		roots = lookupPaths(filepath.Dir(dir))
	} else {
		roots = append([]string{dir}, lookupPaths(dir)...)
	}

	mod, err := l.load(ctx, roots, dir, importPath)
	if err != nil {
		return nil, err
	}
	mod.Source = SourceEphemeral
	return mod, nil
}

func (l *FSLoader) load(ctx context.Context, roots []string, from, importPath string) (*Module, error) {
	spec, err := npmspec.Parse(importPath)
	if err != nil {
		return nil, &ModuleNotFoundError{ImportPath: importPath, From: from, Cause: err}
	}

	for _, nm := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pkgRoot := filepath.Join(nm, filepath.FromSlash(spec.Name))
		if isDir, _ := afero.IsDir(l.fs, pkgRoot); !isDir {
			continue
		}

		manifest, err := l.readManifest(pkgRoot)
		if err != nil {
			return nil, &ModuleNotFoundError{ImportPath: importPath, From: from, Cause: err}
		}

		entry, err := l.resolveEntry(pkgRoot, manifest, spec.Subpath)
		if err != nil {
			return nil, &ModuleNotFoundError{ImportPath: importPath, From: from, Cause: err}
		}

		return &Module{
			ImportPath: importPath,
			Name:       spec.Name,
			Version:    manifest.Version,
			Root:       pkgRoot,
			Entry:      entry,
			Manifest:   manifest,
		}, nil
	}

	return nil, &ModuleNotFoundError{ImportPath: importPath, From: from}
}

// readManifest reads package.json. A missing manifest is an empty one.
func (l *FSLoader) readManifest(pkgRoot string) (Manifest, error) {
	var m Manifest
	data, err := afero.ReadFile(l.fs, filepath.Join(pkgRoot, manifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("read %s: %w", manifestFile, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse %s: %w", filepath.Join(pkgRoot, manifestFile), err)
	}
	return m, nil
}

func (l *FSLoader) resolveEntry(pkgRoot string, m Manifest, subpath string) (string, error) {
	if len(m.Exports) > 0 && string(m.Exports) != "null" {
		key := "."
		if subpath != "" {
			key = "./" + subpath
		}
		target, ok := resolveExports(m.Exports, key)
		if !ok {
			return "", fmt.Errorf("package subpath '%s' is not defined by \"exports\" in %s", key, filepath.Join(pkgRoot, manifestFile))
		}
		entry := filepath.Join(pkgRoot, filepath.FromSlash(target))
		if !l.isFile(entry) {
			return "", fmt.Errorf("exports target %s does not exist", entry)
		}
		return entry, nil
	}

	if subpath != "" {
		if entry, ok := l.resolvePath(filepath.Join(pkgRoot, filepath.FromSlash(subpath))); ok {
			return entry, nil
		}
		return "", fmt.Errorf("no file for subpath '%s' in %s", subpath, pkgRoot)
	}

	if m.Main != "" {
		if entry, ok := l.resolvePath(filepath.Join(pkgRoot, filepath.FromSlash(m.Main))); ok {
			return entry, nil
		}
	}
	if entry, ok := l.resolveIndex(pkgRoot); ok {
		return entry, nil
	}
	return "", fmt.Errorf("no entry point in %s", pkgRoot)
}

// resolvePath applies Node's LOAD_AS_FILE then LOAD_AS_DIRECTORY steps.
func (l *FSLoader) resolvePath(p string) (string, bool) {
	if l.isFile(p) {
		return p, true
	}
	for _, ext := range extensions {
		if l.isFile(p + ext) {
			return p + ext, true
		}
	}
	if isDir, _ := afero.IsDir(l.fs, p); !isDir {
		return "", false
	}
	if m, err := l.readManifest(p); err == nil && m.Main != "" {
		if entry := filepath.Join(p, filepath.FromSlash(m.Main)); l.isFile(entry) {
			return entry, true
		}
	}
	return l.resolveIndex(p)
}

func (l *FSLoader) resolveIndex(dir string) (string, bool) {
	for _, ext := range extensions {
		if p := filepath.Join(dir, "index"+ext); l.isFile(p) {
			return p, true
		}
	}
	return "", false
}

func (l *FSLoader) isFile(p string) bool {
	info, err := l.fs.Stat(p)
	return err == nil && !info.IsDir()
}

// lookupPaths lists the node_modules directories Node consults for a bare
// specifier required from a file in start, nearest first. Directories that
// are themselves named node_modules are skipped.
func lookupPaths(start string) []string {
	dir := filepath.Clean(start)
	var paths []string
	for {
		if filepath.Base(dir) != nodeModulesDir {
			paths = append(paths, filepath.Join(dir, nodeModulesDir))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return paths
		}
		dir = parent
	}
}

// packageName returns the package part of an import path.
func packageName(importPath string) string {
	parts := strings.SplitN(importPath, "/", 3)
	if strings.HasPrefix(importPath, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

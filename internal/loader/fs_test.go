// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for p, data := range files {
		if err := afero.WriteFile(fs, filepath.FromSlash(p), []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func newTestTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/proj/node_modules/left-pad/package.json": `{"name":"left-pad","version":"1.3.0","main":"index.js"}`,
		"/proj/node_modules/left-pad/index.js":     `module.exports = () => {}`,

		"/proj/node_modules/@scope/tool/package.json":  `{"name":"@scope/tool","version":"2.0.0","exports":{".":"./dist/main.cjs","./extra":{"import":"./dist/extra.mjs"}}}`,
		"/proj/node_modules/@scope/tool/dist/main.cjs": ``,
		"/proj/node_modules/@scope/tool/dist/extra.mjs": ``,

		"/proj/node_modules/noext/package.json":  `{"name":"noext","version":"0.1.0","main":"lib/main"}`,
		"/proj/node_modules/noext/lib/main.js":   ``,
		"/proj/node_modules/noext/lib/util.json": `{}`,

		"/proj/node_modules/bare/index.js": ``,

		"/proj/node_modules/broken/package.json": `{not json`,

		"/node_modules/hoisted/package.json": `{"name":"hoisted","version":"9.9.9"}`,
		"/node_modules/hoisted/index.mjs":    ``,

		"/root/.npm/_npx/abc/node_modules/is-number/package.json": `{"name":"is-number","version":"7.0.0","main":"index.js"}`,
		"/root/.npm/_npx/abc/node_modules/is-number/index.js":     ``,
	})
	return fs
}

func TestFSLoader_LoadByName(t *testing.T) {
	t.Parallel()

	l := NewFSLoader(newTestTree(t), filepath.FromSlash("/proj/src"))

	tests := []struct {
		importPath  string
		wantEntry   string
		wantVersion string
	}{
		{"left-pad", "/proj/node_modules/left-pad/index.js", "1.3.0"},
		{"@scope/tool", "/proj/node_modules/@scope/tool/dist/main.cjs", "2.0.0"},
		{"@scope/tool/extra", "/proj/node_modules/@scope/tool/dist/extra.mjs", "2.0.0"},
		{"noext", "/proj/node_modules/noext/lib/main.js", "0.1.0"},
		{"noext/lib/util", "/proj/node_modules/noext/lib/util.json", "0.1.0"},
		{"bare", "/proj/node_modules/bare/index.js", ""},
		{"hoisted", "/node_modules/hoisted/index.mjs", "9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.importPath, func(t *testing.T) {
			t.Parallel()

			mod, err := l.LoadByName(context.Background(), tt.importPath)
			if err != nil {
				t.Fatalf("LoadByName(%q) error = %v", tt.importPath, err)
			}
			if mod.Entry != filepath.FromSlash(tt.wantEntry) {
				t.Errorf("Entry = %q, want %q", mod.Entry, tt.wantEntry)
			}
			if mod.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", mod.Version, tt.wantVersion)
			}
			if mod.Source != SourceLocal {
				t.Errorf("Source = %q, want %q", mod.Source, SourceLocal)
			}
			if mod.ImportPath != tt.importPath {
				t.Errorf("ImportPath = %q, want %q", mod.ImportPath, tt.importPath)
			}
		})
	}
}

func TestFSLoader_LoadByName_NotFound(t *testing.T) {
	t.Parallel()

	l := NewFSLoader(newTestTree(t), filepath.FromSlash("/proj"))

	for _, importPath := range []string{
		"is-number",          // only in the npx cache
		"@scope/tool/hidden", // not exported
		"left-pad/missing",   // no such file
		"broken",             // unreadable manifest
		"Not A Name",
	} {
		_, err := l.LoadByName(context.Background(), importPath)
		if !errors.Is(err, ErrModuleNotFound) {
			t.Errorf("LoadByName(%q) error = %v, want ErrModuleNotFound", importPath, err)
		}
	}
}

func TestFSLoader_LoadFromDirectory(t *testing.T) {
	t.Parallel()

	l := NewFSLoader(newTestTree(t), filepath.FromSlash("/proj"))
	dir := filepath.FromSlash("/root/.npm/_npx/abc/node_modules")

	mod, err := l.LoadFromDirectory(context.Background(), dir, "is-number")
	if err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}

	want := &Module{
		ImportPath: "is-number",
		Name:       "is-number",
		Version:    "7.0.0",
		Root:       filepath.Join(dir, "is-number"),
		Entry:      filepath.Join(dir, "is-number", "index.js"),
		Source:     SourceEphemeral,
		Manifest:   Manifest{Name: "is-number", Version: "7.0.0", Main: "index.js"},
	}
	if !reflect.DeepEqual(mod, want) {
		t.Errorf("LoadFromDirectory() =\n  %+v\nwant\n  %+v", mod, want)
	}

	// Resolution is rooted at dir, not at the loader's base directory.
	if _, err := l.LoadFromDirectory(context.Background(), dir, "left-pad"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("LoadFromDirectory(left-pad) error = %v, want ErrModuleNotFound", err)
	}
}

func TestFSLoader_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFSLoader(newTestTree(t), "/proj").LoadByName(ctx, "left-pad")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("LoadByName() error = %v, want context.Canceled", err)
	}
}

func TestLookupPaths(t *testing.T) {
	t.Parallel()

	got := lookupPaths(filepath.FromSlash("/a/node_modules/b"))
	want := []string{
		filepath.FromSlash("/a/node_modules/b/node_modules"),
		filepath.FromSlash("/a/node_modules"),
		filepath.FromSlash("/node_modules"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lookupPaths() = %v, want %v", got, want)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if l, err := New(Options{Type: LoaderTypeFS, Fs: afero.NewMemMapFs()}); err != nil {
		t.Errorf("New(fs) error = %v", err)
	} else if _, ok := l.(*FSLoader); !ok {
		t.Errorf("New(fs) = %T, want *FSLoader", l)
	}

	if l, err := New(Options{Type: LoaderTypeNode}); err != nil {
		t.Errorf("New(node) error = %v", err)
	} else if _, ok := l.(*NodeLoader); !ok {
		t.Errorf("New(node) = %T, want *NodeLoader", l)
	}

	if _, err := New(Options{Type: "deno"}); !errors.Is(err, ErrInvalidLoaderType) {
		t.Errorf("New(deno) error = %v, want ErrInvalidLoaderType", err)
	}
}

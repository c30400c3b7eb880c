// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/invowk/iod/internal/loader"
	"github.com/invowk/iod/internal/npx"
	"github.com/invowk/iod/internal/pkgmgr"
	"github.com/invowk/iod/internal/runtime"
	"github.com/invowk/iod/internal/searchpath"
	"github.com/invowk/iod/internal/testutil"
	"github.com/invowk/iod/pkg/npmspec"
)

const (
	npxDir  = "/Users/x/.npm/_npx/HASH/node_modules"
	npxPath = npxDir + "/.bin:/usr/local/bin:/usr/bin\n"
)

// fakeLoader serves modules from two fixed sets and records every request.
type fakeLoader struct {
	mu        sync.Mutex
	local     map[string]bool
	ephemeral map[string]bool
	byName    []string
	fromDir   []string
}

func newFakeLoader(local, ephemeral []string) *fakeLoader {
	l := &fakeLoader{local: map[string]bool{}, ephemeral: map[string]bool{}}
	for _, p := range local {
		l.local[p] = true
	}
	for _, p := range ephemeral {
		l.ephemeral[p] = true
	}
	return l
}

func (l *fakeLoader) LoadByName(_ context.Context, importPath string) (*loader.Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byName = append(l.byName, importPath)
	if !l.local[importPath] {
		return nil, &loader.ModuleNotFoundError{ImportPath: importPath}
	}
	return &loader.Module{ImportPath: importPath, Root: "/proj/node_modules/" + importPath, Source: loader.SourceLocal}, nil
}

func (l *fakeLoader) LoadFromDirectory(_ context.Context, dir, importPath string) (*loader.Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fromDir = append(l.fromDir, dir+"|"+importPath)
	if !l.ephemeral[importPath] {
		return nil, &loader.ModuleNotFoundError{ImportPath: importPath, From: dir}
	}
	return &loader.Module{ImportPath: importPath, Root: dir + "/" + importPath, Source: loader.SourceEphemeral}, nil
}

type harness struct {
	rt       *testutil.FakeRuntime
	loader   *fakeLoader
	progress []string
	resolver *Resolver
}

func newHarness(t *testing.T, rt *testutil.FakeRuntime, l *fakeLoader) *harness {
	t.Helper()
	h := &harness{rt: rt, loader: l}
	h.resolver = New(Options{
		Loader:    l,
		Installer: npx.New(rt, npx.Options{}),
		Locator:   &searchpath.NPXCacheLocator{Separator: ":"},
		Advisor:   pkgmgr.Advisor{},
		Progress:  func(msg string) { h.progress = append(h.progress, msg) },
		Logger:    log.New(io.Discard),
	})
	return h
}

func healthyRuntime() *testutil.FakeRuntime {
	return testutil.NewFakeRuntime().
		On("npx --version", runtime.NewSuccessResult("8.1.2\n")).
		On("npx -y", runtime.NewSuccessResult(npxPath))
}

func TestResolve_LocalHit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, healthyRuntime(), newFakeLoader([]string{"left-pad"}, nil))

	mod, err := h.resolver.Resolve(context.Background(), "left-pad@3.4.0")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if mod.ImportPath != "left-pad" || mod.Source != loader.SourceLocal {
		t.Errorf("Resolve() = %+v, want local left-pad", mod)
	}
	if calls := h.rt.Calls(); len(calls) != 0 {
		t.Errorf("expected no installer invocations, got %v", calls)
	}
	if len(h.progress) != 0 {
		t.Errorf("expected no progress notices, got %v", h.progress)
	}
}

func TestResolve_VersionNeverReachesLoader(t *testing.T) {
	t.Parallel()

	l := newFakeLoader(nil, []string{"left-pad", "@org/pkg/lib/x.js"})
	h := newHarness(t, healthyRuntime(), l)

	if _, err := h.resolver.ResolveAll(context.Background(), []string{"left-pad@3.4.0", "@org/pkg@1.2.3/lib/x.js"}); err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}

	wantByName := map[string]bool{"left-pad": true, "@org/pkg/lib/x.js": true}
	for _, p := range l.byName {
		if !wantByName[p] {
			t.Errorf("probe received %q", p)
		}
	}
	want := []string{npxDir + "|left-pad", npxDir + "|@org/pkg/lib/x.js"}
	if strings.Join(l.fromDir, ",") != strings.Join(want, ",") {
		t.Errorf("ephemeral loads = %v, want %v", l.fromDir, want)
	}
}

func TestResolveAll_BatchesMissing(t *testing.T) {
	t.Parallel()

	l := newFakeLoader([]string{"a", "c"}, []string{"b", "d", "e"})
	h := newHarness(t, healthyRuntime(), l)

	mods, err := h.resolver.ResolveAll(context.Background(), []string{"a", "b@1.0.0", "c", "d@beta", "e"})
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}

	var got []string
	for _, m := range mods {
		got = append(got, fmt.Sprintf("%s:%s", m.ImportPath, m.Source))
	}
	want := "a:local,b:ephemeral,c:local,d:ephemeral,e:ephemeral"
	if strings.Join(got, ",") != want {
		t.Errorf("ResolveAll() = %v, want %s", got, want)
	}

	if n := h.rt.CallCount("npx --version"); n != 1 {
		t.Errorf("version checks = %d, want 1", n)
	}
	if n := h.rt.CallCount("npx -y"); n != 1 {
		t.Errorf("install invocations = %d, want 1", n)
	}
	if len(l.fromDir) != 3 {
		t.Errorf("ephemeral loads = %d, want 3", len(l.fromDir))
	}

	install := h.rt.Calls()[1].Line
	wantLine := "npx -y -p b@1.0.0 -p d@beta -p e@latest node -e 'console.log(process.env.PATH)'"
	if install != wantLine {
		t.Errorf("install command = %q, want %q", install, wantLine)
	}
}

func TestResolveAll_Progress(t *testing.T) {
	t.Parallel()

	h := newHarness(t, healthyRuntime(), newFakeLoader(nil, []string{"a", "b"}))
	if _, err := h.resolver.ResolveAll(context.Background(), []string{"a@1.0.0", "b@2.0.0"}); err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}

	want := []string{
		"a, b not available locally. Attempting to use npx to install temporarily.",
		"Installing... (npx -y -p a@1.0.0 -p b@2.0.0 node -e 'console.log(process.env.PATH)')",
		"Installed into " + npxDir + ".",
		"To skip this step in future, run: npm install --save-dev a@1.0.0 b@2.0.0",
	}
	if strings.Join(h.progress, "\n") != strings.Join(want, "\n") {
		t.Errorf("progress =\n%s\nwant\n%s", strings.Join(h.progress, "\n"), strings.Join(want, "\n"))
	}
}

func TestResolveAll_DuplicateNames(t *testing.T) {
	t.Parallel()

	l := newFakeLoader(nil, nil)
	h := newHarness(t, healthyRuntime(), l)

	_, err := h.resolver.ResolveAll(context.Background(), []string{"left-pad@1.0.0", "left-pad@2.0.0"})
	if !errors.Is(err, npmspec.ErrInvalidSpecifier) {
		t.Fatalf("ResolveAll() error = %v, want ErrInvalidSpecifier", err)
	}
	if len(h.rt.Calls()) != 0 || len(l.byName) != 0 {
		t.Error("no probe or process may run for an invalid batch")
	}

	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("error type = %T, want *ResolutionError", err)
	}
	if resErr.Remediation != "" {
		t.Errorf("Remediation = %q, want none for invalid input", resErr.Remediation)
	}
}

func TestResolveAll_Empty(t *testing.T) {
	t.Parallel()

	h := newHarness(t, healthyRuntime(), newFakeLoader(nil, nil))
	mods, err := h.resolver.ResolveAll(context.Background(), nil)
	if err != nil || len(mods) != 0 {
		t.Errorf("ResolveAll(nil) = %v, %v", mods, err)
	}
}

func TestResolve_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rt          *testutil.FakeRuntime
		ephemeral   []string
		wantErr     error
		wantMsg     string
		wantInstall int
	}{
		{
			name:    "installer unavailable",
			rt:      testutil.NewFakeRuntime().On("npx --version", runtime.NewExitCodeResult(127, "sh: npx: not found")),
			wantErr: npx.ErrInstallerUnavailable,
			wantMsg: "Couldn't execute npx --version. Is npm installed and up-to-date?",
		},
		{
			name:    "installer too old",
			rt:      testutil.NewFakeRuntime().On("npx --version", runtime.NewSuccessResult("7.1.2")),
			wantErr: npx.ErrInstallerTooOld,
			wantMsg: "Require npm version 8+. Got '7.1.2'",
		},
		{
			name: "install failed",
			rt: testutil.NewFakeRuntime().
				On("npx --version", runtime.NewSuccessResult("8.1.2")).
				On("npx -y", runtime.NewExitCodeResult(1, "npm ERR! code E404")),
			wantErr:     npx.ErrInstallFailed,
			wantMsg:     "npm ERR! code E404",
			wantInstall: 1,
		},
		{
			name: "no cache segment",
			rt: testutil.NewFakeRuntime().
				On("npx --version", runtime.NewSuccessResult("8.1.2")).
				On("npx -y", runtime.NewSuccessResult("/usr/bin:/bin")),
			wantErr:     searchpath.ErrEphemeralDirectoryNotFound,
			wantMsg:     `["/usr/bin","/bin"]`,
			wantInstall: 1,
		},
		{
			name: "unexpected layout",
			rt: testutil.NewFakeRuntime().
				On("npx --version", runtime.NewSuccessResult("8.1.2")).
				On("npx -y", runtime.NewSuccessResult("/Users/x/.npm/_npx/HASH/lib/.bin:/usr/bin")),
			wantErr:     searchpath.ErrUnexpectedInstallLayout,
			wantMsg:     "/Users/x/.npm/_npx/HASH/lib/.bin",
			wantInstall: 1,
		},
		{
			name:        "load after install",
			rt:          healthyRuntime(),
			wantErr:     ErrLoadAfterInstallFailed,
			wantMsg:     "Cannot find module 'left-pad'",
			wantInstall: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, tt.rt, newFakeLoader(nil, tt.ephemeral))
			_, err := h.resolver.Resolve(context.Background(), "left-pad@1.3.0")

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}

			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				t.Fatalf("error type = %T, want *ResolutionError", err)
			}
			if got := strings.Join(resErr.ImportPaths, ","); got != "left-pad" {
				t.Errorf("ImportPaths = %q", got)
			}
			if resErr.Remediation != "npm install --save-dev left-pad@1.3.0" {
				t.Errorf("Remediation = %q", resErr.Remediation)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() does not contain %q:\n%s", tt.wantMsg, err.Error())
			}
			if n := tt.rt.CallCount("npx -y"); n != tt.wantInstall {
				t.Errorf("install invocations = %d, want %d", n, tt.wantInstall)
			}
		})
	}
}

func TestResolutionError_Message(t *testing.T) {
	t.Parallel()

	err := &ResolutionError{
		ImportPaths: []string{"a/sub", "@s/b"},
		Names:       []string{"a", "@s/b"},
		Cause:       errors.New("Require npm version 8+. Got '7.1.2' when running 'npx --version'"),
		Remediation: "pnpm add -D a@latest @s/b@2.0.0",
	}

	want := "IOD (Import On-Demand) failed for a/sub, @s/b with message:\n" +
		"    Require npm version 8+. Got '7.1.2' when running 'npx --version'\n\n" +
		"You should install a, @s/b locally:\n" +
		"    pnpm add -D a@latest @s/b@2.0.0"
	if err.Error() != want {
		t.Errorf("Error() =\n%s\nwant\n%s", err.Error(), want)
	}
}

// The scenario end to end: a range specifier missing locally, npm 8,
// an npx cache on macOS.
func TestResolve_EndToEnd(t *testing.T) {
	t.Parallel()

	l := newFakeLoader(nil, []string{"left-pad"})
	h := newHarness(t, healthyRuntime(), l)

	mod, err := h.resolver.Resolve(context.Background(), "left-pad@>1.0.0")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if mod.Root != npxDir+"/left-pad" {
		t.Errorf("Root = %q, want module under %s", mod.Root, npxDir)
	}
	if len(l.fromDir) != 1 || l.fromDir[0] != npxDir+"|left-pad" {
		t.Errorf("ephemeral loads = %v", l.fromDir)
	}

	install := h.rt.Calls()[1]
	if !install.Shell {
		t.Error("install must run through a shell")
	}
	if !strings.Contains(install.Line, "-p 'left-pad@>1.0.0'") {
		t.Errorf("install command %q does not quote the range", install.Line)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	if Loaded.String() != "loaded" || NotFoundLocally.String() != "not found locally" || State(9).String() != "unknown" {
		t.Error("unexpected State names")
	}
}

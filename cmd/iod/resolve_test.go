// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/invowk/iod/internal/config"
	"github.com/invowk/iod/internal/loader"
	"github.com/invowk/iod/internal/npx"
	"github.com/invowk/iod/internal/runtime"
	"github.com/invowk/iod/internal/testutil"
)

func TestResolveCommand_LocalHitSkipsInstaller(t *testing.T) {
	t.Parallel()

	rt := npmProject(map[string]string{"left-pad": "1.3.0"}, nil)
	ta := newTestApp(t, rt, nil)

	if err := ta.run("resolve", "--output", "json", "left-pad@1.3.0"); err != nil {
		t.Fatalf("resolve failed: %v\nstderr: %s", err, ta.stderr)
	}

	var mods []loader.Module
	if err := json.Unmarshal(ta.stdout.Bytes(), &mods); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, ta.stdout)
	}
	if len(mods) != 1 {
		t.Fatalf("got %d modules, want 1", len(mods))
	}
	if mods[0].Source != loader.SourceLocal || mods[0].Version != "1.3.0" {
		t.Errorf("module = %+v, want local left-pad 1.3.0", mods[0])
	}
	if n := rt.CallCount("npx"); n != 0 {
		t.Errorf("installer ran %d times for a local package", n)
	}
}

func TestResolveCommand_InstallsMissingInOneBatch(t *testing.T) {
	t.Parallel()

	rt := npmProject(
		map[string]string{"is-number": "7.0.0"},
		map[string]string{"left-pad": "1.3.0", "is-odd": "3.0.1"},
	)
	ta := newTestApp(t, rt, nil)

	err := ta.run("resolve", "-o", "toml", "left-pad@1.3.0", "is-number", "is-odd@3.0.1")
	if err != nil {
		t.Fatalf("resolve failed: %v\nstderr: %s", err, ta.stderr)
	}

	if n := rt.CallCount("npx --version"); n != 1 {
		t.Errorf("version checks = %d, want 1", n)
	}
	if n := rt.CallCount("npx -y"); n != 1 {
		t.Errorf("install runs = %d, want 1", n)
	}
	for _, c := range rt.Calls() {
		if strings.HasPrefix(c.Line, "npx -y") &&
			!strings.HasPrefix(c.Line, "npx -y -p left-pad@1.3.0 -p is-odd@3.0.1 node -e ") {
			t.Errorf("install line = %q", c.Line)
		}
	}

	var doc moduleDocument
	if err := toml.Unmarshal(ta.stdout.Bytes(), &doc); err != nil {
		t.Fatalf("stdout is not TOML: %v\n%s", err, ta.stdout)
	}
	wantSources := []loader.Source{loader.SourceEphemeral, loader.SourceLocal, loader.SourceEphemeral}
	if len(doc.Modules) != len(wantSources) {
		t.Fatalf("got %d modules, want %d", len(doc.Modules), len(wantSources))
	}
	for i, m := range doc.Modules {
		if m.Source != wantSources[i] {
			t.Errorf("module %d (%s) source = %q, want %q", i, m.ImportPath, m.Source, wantSources[i])
		}
	}
	if !strings.HasPrefix(doc.Modules[0].Root, testNPXDir) {
		t.Errorf("ephemeral root = %q, want under %q", doc.Modules[0].Root, testNPXDir)
	}

	assertContains(t, "stderr", ta.stderr.String(),
		"left-pad, is-odd not available locally. Attempting to use npx to install temporarily.",
		"Installed into "+testNPXDir+".",
		"To skip this step in future, run: npm install --save-dev left-pad@1.3.0 is-odd@3.0.1",
	)
}

func TestResolveCommand_TableOutput(t *testing.T) {
	t.Parallel()

	rt := npmProject(map[string]string{"left-pad": "1.3.0"}, nil)
	ta := newTestApp(t, rt, nil)

	if err := ta.run("resolve", "left-pad"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	assertContains(t, "stdout", ta.stdout.String(),
		"IMPORT PATH", "SOURCE", "left-pad", "1.3.0", "local", "/proj/node_modules/left-pad/index.js")
}

func TestResolveCommand_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rt        *testutil.FakeRuntime
		mutate    func(*config.Config)
		args      []string
		wantIs    error
		wantInErr []string
	}{
		{
			name:   "installer missing",
			rt:     testutil.NewFakeRuntime(),
			args:   []string{"left-pad@1.3.0"},
			wantIs: npx.ErrInstallerUnavailable,
			wantInErr: []string{
				"IOD (Import On-Demand) failed for left-pad with message:",
				"Couldn't execute npx --version. Is npm installed and up-to-date?",
				"You should install left-pad locally:",
				"npm install --save-dev left-pad@1.3.0",
			},
		},
		{
			name:   "installer too old",
			rt:     testutil.NewFakeRuntime().On("npx --version", runtime.NewSuccessResult("6.14.4\n")),
			args:   []string{"left-pad"},
			wantIs: npx.ErrInstallerTooOld,
			wantInErr: []string{
				"Require npm version 8+. Got '6.14.4' when running 'npx --version'",
				"npm install --save-dev left-pad@latest",
			},
		},
		{
			name: "remediation follows configured manager",
			rt:   testutil.NewFakeRuntime(),
			mutate: func(c *config.Config) {
				c.Remediation.PackageManager = "yarn"
			},
			args:      []string{"@scope/pkg@2.0.0/sub"},
			wantIs:    npx.ErrInstallerUnavailable,
			wantInErr: []string{"failed for @scope/pkg/sub", "yarn add -D @scope/pkg@2.0.0"},
		},
		{
			name:      "invalid specifier",
			rt:        testutil.NewFakeRuntime(),
			args:      []string{"@broken"},
			wantInErr: []string{"invalid package specifier"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ta := newTestApp(t, tt.rt, tt.mutate)
			err := ta.run(append([]string{"resolve"}, tt.args...)...)

			var exitErr *ExitError
			if !errors.As(err, &exitErr) || exitErr.Code != 1 {
				t.Fatalf("error = %v, want ExitError with code 1", err)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error does not wrap %v: %v", tt.wantIs, err)
			}
			assertContains(t, "stderr", ta.stderr.String(), tt.wantInErr...)
			if ta.stdout.Len() != 0 {
				t.Errorf("stdout should be empty on failure, got %q", ta.stdout)
			}
		})
	}
}

func TestResolveCommand_InvalidOutputFormat(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, testutil.NewFakeRuntime(), nil)
	err := ta.run("resolve", "--output", "yaml", "left-pad")
	if !errors.Is(err, ErrInvalidOutputFormat) {
		t.Fatalf("error = %v, want ErrInvalidOutputFormat", err)
	}
}

func TestResolveCommand_RequiresArgs(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, testutil.NewFakeRuntime(), nil)
	if err := ta.run("resolve"); err == nil {
		t.Fatal("resolve without packages should fail")
	}
}

func TestWhichCommand(t *testing.T) {
	t.Parallel()

	rt := npmProject(map[string]string{"left-pad": "1.3.0"}, map[string]string{"is-odd": "3.0.1"})
	ta := newTestApp(t, rt, nil)

	if err := ta.run("which", "left-pad", "is-odd"); err != nil {
		t.Fatalf("which failed: %v\nstderr: %s", err, ta.stderr)
	}

	want := "/proj/node_modules/left-pad/index.js\n" + testNPXDir + "/is-odd/index.js\n"
	if got := ta.stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	for _, c := range rt.Calls() {
		if strings.HasPrefix(c.Line, "node -e") && c.Env["IOD_RESOLVE_IMPORT"] != "0" {
			t.Errorf("which must not execute packages, got IOD_RESOLVE_IMPORT=%q", c.Env["IOD_RESOLVE_IMPORT"])
		}
	}
}

func TestWhichCommand_OutputJSON(t *testing.T) {
	t.Parallel()

	rt := npmProject(map[string]string{"left-pad": "1.3.0"}, nil)
	ta := newTestApp(t, rt, nil)

	if err := ta.run("which", "-o", "json", "left-pad"); err != nil {
		t.Fatalf("which failed: %v", err)
	}
	assertContains(t, "stdout", ta.stdout.String(), `"import_path": "left-pad"`, `"source": "local"`)
}

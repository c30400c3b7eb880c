// SPDX-License-Identifier: MPL-2.0

package npx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/invowk/iod/internal/runtime"
	"github.com/invowk/iod/internal/testutil"
	"github.com/invowk/iod/pkg/npmspec"
)

func mustParseAll(t *testing.T, raws ...string) []npmspec.Specifier {
	t.Helper()
	specs, err := npmspec.ParseAll(raws)
	if err != nil {
		t.Fatalf("ParseAll(%v): %v", raws, err)
	}
	return specs
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	inst := New(testutil.NewFakeRuntime(), Options{})
	if inst.Binary() != DefaultBinary {
		t.Errorf("Binary() = %q, want %q", inst.Binary(), DefaultBinary)
	}
	if got := inst.VersionCommand(); got != "npx --version" {
		t.Errorf("VersionCommand() = %q", got)
	}
	if inst.opts.MinMajor != DefaultMinMajor {
		t.Errorf("MinMajor = %d, want %d", inst.opts.MinMajor, DefaultMinMajor)
	}
}

func TestCheckVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     *runtime.Result
		wantErr    error
		wantMsg    string
		wantReport string
	}{
		{
			name:       "npm 8",
			result:     runtime.NewSuccessResult("8.1.2\n"),
			wantReport: "8.1.2",
		},
		{
			name:       "npm 10",
			result:     runtime.NewSuccessResult("10.9.0"),
			wantReport: "10.9.0",
		},
		{
			name:       "update notice before version",
			result:     runtime.NewSuccessResult("npm notice New major version available\n10.2.4\n"),
			wantReport: "10.2.4",
		},
		{
			name:    "too old",
			result:  runtime.NewSuccessResult("7.1.2\n"),
			wantErr: ErrInstallerTooOld,
			wantMsg: "Require npm version 8+. Got '7.1.2' when running 'npx --version'",
		},
		{
			name:    "garbage version",
			result:  runtime.NewSuccessResult("not-a-version"),
			wantErr: ErrInstallerTooOld,
			wantMsg: "Got 'not-a-version'",
		},
		{
			name:    "process failed",
			result:  runtime.NewExitCodeResult(1, "npm ERR! cb() never called"),
			wantErr: ErrInstallerUnavailable,
			wantMsg: "Couldn't execute npx --version. Is npm installed and up-to-date?",
		},
		{
			name:    "binary not found",
			result:  runtime.NewExitCodeResult(127, "npx: command not found"),
			wantErr: ErrInstallerUnavailable,
			wantMsg: "Is npm installed and up-to-date? ('npx' was not found in PATH)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := testutil.NewFakeRuntime().On("npx --version", tt.result)
			version, err := New(rt, Options{}).CheckVersion(context.Background())

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CheckVersion() error = %v", err)
				}
				if version != tt.wantReport {
					t.Errorf("CheckVersion() = %q, want %q", version, tt.wantReport)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckVersion() error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCheckVersion_CustomMinMajor(t *testing.T) {
	t.Parallel()

	rt := testutil.NewFakeRuntime().On("npx --version", runtime.NewSuccessResult("9.0.0"))
	_, err := New(rt, Options{MinMajor: 10}).CheckVersion(context.Background())

	var tooOld *InstallerTooOldError
	if !errors.As(err, &tooOld) {
		t.Fatalf("CheckVersion() error = %v, want *InstallerTooOldError", err)
	}
	if tooOld.MinMajor != 10 || tooOld.Version != "9.0.0" {
		t.Errorf("InstallerTooOldError = %+v", tooOld)
	}
}

func TestInstallCommand(t *testing.T) {
	t.Parallel()

	inst := New(testutil.NewFakeRuntime(), Options{})

	tests := []struct {
		name  string
		specs []string
		want  string
	}{
		{
			name:  "single pinned",
			specs: []string{"left-pad@1.3.0"},
			want:  "npx -y -p left-pad@1.3.0 node -e 'console.log(process.env.PATH)'",
		},
		{
			name:  "batched with default tag",
			specs: []string{"a@1.0.0", "@scope/b"},
			want:  "npx -y -p a@1.0.0 -p @scope/b@latest node -e 'console.log(process.env.PATH)'",
		},
		{
			name:  "range is quoted",
			specs: []string{"left-pad@>1.0.0"},
			want:  "npx -y -p 'left-pad@>1.0.0' node -e 'console.log(process.env.PATH)'",
		},
		{
			name:  "caret is left alone",
			specs: []string{"left-pad@^1.3.0"},
			want:  "npx -y -p left-pad@^1.3.0 node -e 'console.log(process.env.PATH)'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := inst.InstallCommand(mustParseAll(t, tt.specs...))
			if err != nil {
				t.Fatalf("InstallCommand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("InstallCommand() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestInstallCommand_Empty(t *testing.T) {
	t.Parallel()

	if _, err := New(testutil.NewFakeRuntime(), Options{}).InstallCommand(nil); err == nil {
		t.Fatal("InstallCommand(nil) expected error")
	}
}

func TestInstall(t *testing.T) {
	t.Parallel()

	const path = "/Users/x/.npm/_npx/HASH/node_modules/.bin:/usr/bin\n"
	rt := testutil.NewFakeRuntime().On("npx -y", runtime.NewSuccessResult(path))
	inst := New(rt, Options{Dir: "/work"})

	got, err := inst.Install(context.Background(), mustParseAll(t, "a@1.0.0", "b@2.0.0"))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if got != path {
		t.Errorf("Install() = %q, want %q", got, path)
	}

	calls := rt.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one command, got %d", len(calls))
	}
	if !calls[0].Shell {
		t.Error("install command must run through a shell")
	}
	if calls[0].Dir != "/work" {
		t.Errorf("Dir = %q, want /work", calls[0].Dir)
	}
	if !strings.Contains(calls[0].Line, "-p a@1.0.0 -p b@2.0.0") {
		t.Errorf("install line %q does not batch both packages", calls[0].Line)
	}
}

func TestInstall_Failed(t *testing.T) {
	t.Parallel()

	const stderr = "npm ERR! 404 Not Found - GET https://registry.npmjs.org/nope"
	rt := testutil.NewFakeRuntime().On("npx -y", runtime.NewExitCodeResult(1, stderr))

	_, err := New(rt, Options{}).Install(context.Background(), mustParseAll(t, "nope@1.0.0"))
	if !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("Install() error = %v, want ErrInstallFailed", err)
	}

	var exitErr *runtime.ExitStatusError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Install() error should wrap the process error, got %v", err)
	}
	if !strings.Contains(err.Error(), stderr) {
		t.Errorf("error %q does not carry the installer output", err.Error())
	}
}

func TestMeetsMajor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		min     int
		want    bool
	}{
		{"8.0.0", 8, true},
		{"8.1.2", 8, true},
		{"v8.1.2", 8, true},
		{"11.0.0-pre.1", 8, true},
		{"7.24.2", 8, false},
		{"", 8, false},
		{"eight", 8, false},
	}

	for _, tt := range tests {
		if got := meetsMajor(tt.version, tt.min); got != tt.want {
			t.Errorf("meetsMajor(%q, %d) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
}

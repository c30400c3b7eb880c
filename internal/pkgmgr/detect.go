// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// KindNPM is the npm CLI.
	KindNPM Kind = "npm"
	// KindPNPM is the pnpm CLI.
	KindPNPM Kind = "pnpm"
	// KindYarn is the yarn CLI.
	KindYarn Kind = "yarn"

	// UserAgentVar is set by package managers for the scripts they run,
	// e.g. "pnpm/8.6.0 npm/? node/v20.3.0 darwin arm64".
	UserAgentVar = "npm_config_user_agent"
	// ExecPathVar holds the path of the package manager's CLI script.
	ExecPathVar = "npm_execpath"

	// SignalUserAgent means the kind came from UserAgentVar.
	SignalUserAgent Signal = "user agent"
	// SignalExecPath means the kind came from ExecPathVar.
	SignalExecPath Signal = "exec path"
	// SignalMainModule means the kind came from the main module location.
	SignalMainModule Signal = "main module path"
	// SignalDefault means nothing matched and npm was assumed.
	SignalDefault Signal = "default"
)

// ErrInvalidKind is returned when a Kind value is not recognized.
var ErrInvalidKind = errors.New("invalid package manager")

var (
	npmExecPattern    = regexp.MustCompile(`np[xm]-cli\.js$`)
	yarnExecPattern   = regexp.MustCompile(`yarn(?:\.c?js|-[\w.]+\.cjs)?$`)
	pnpmModulePattern = regexp.MustCompile(`/\.?pnpm/`)
	yarnModulePattern = regexp.MustCompile(`/\.?yarn/`)

	instructionPrefixes = map[Kind]string{
		KindNPM:  "npm install --save-dev",
		KindPNPM: "pnpm add -D",
		KindYarn: "yarn add -D",
	}
)

type (
	// Kind identifies a package manager.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// Signal names the environment input a Detection was derived from.
	Signal string

	// Env carries the process facts the detection looks at. It is passed in
	// explicitly so Detect stays a pure function.
	Env struct {
		// UserAgent is the value of npm_config_user_agent.
		UserAgent string
		// ExecPath is the value of npm_execpath.
		ExecPath string
		// MainModulePath is the directory of the running program.
		MainModulePath string
	}

	// Detection is the outcome of Detect.
	Detection struct {
		Kind   Kind
		Signal Signal
	}

	// Advisor builds remediation commands. A non-empty Override bypasses
	// detection; otherwise the kind is detected again for every message.
	Advisor struct {
		Env      Env
		Override Kind
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid package manager %q (valid: npm, pnpm, yarn)", e.Value)
}

// Unwrap returns ErrInvalidKind so callers can use errors.Is for programmatic detection.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// String returns the CLI name.
func (k Kind) String() string { return string(k) }

// IsValid returns whether the Kind is one of the known package managers,
// and a list of validation errors if it is not.
func (k Kind) IsValid() (bool, []error) {
	if _, ok := instructionPrefixes[k]; ok {
		return true, nil
	}
	return false, []error{&InvalidKindError{Value: k}}
}

// EnvFromOS snapshots the real process environment.
func EnvFromOS() Env {
	env := Env{
		UserAgent: os.Getenv(UserAgentVar),
		ExecPath:  os.Getenv(ExecPathVar),
	}
	if exe, err := os.Executable(); err == nil {
		env.MainModulePath = filepath.Dir(exe)
	}
	return env
}

// Detect determines the package manager. First match wins:
//  1. user agent prefix: pnpm, yarn, npm
//  2. exec path: npm/npx CLI script, yarn script
//  3. main module path: a pnpm or yarn store segment
//  4. npm
func Detect(env Env) Detection {
	if ua := env.UserAgent; ua != "" {
		for _, k := range []Kind{KindPNPM, KindYarn, KindNPM} {
			if strings.HasPrefix(ua, string(k)) {
				return Detection{Kind: k, Signal: SignalUserAgent}
			}
		}
	}

	if ep := filepath.ToSlash(env.ExecPath); ep != "" {
		if npmExecPattern.MatchString(ep) {
			return Detection{Kind: KindNPM, Signal: SignalExecPath}
		}
		if yarnExecPattern.MatchString(ep) {
			return Detection{Kind: KindYarn, Signal: SignalExecPath}
		}
	}

	if mp := filepath.ToSlash(env.MainModulePath); mp != "" {
		// A trailing slash lets ".../node_modules/.pnpm" match like its children.
		mp = strings.TrimSuffix(mp, "/") + "/"
		if pnpmModulePattern.MatchString(mp) {
			return Detection{Kind: KindPNPM, Signal: SignalMainModule}
		}
		if yarnModulePattern.MatchString(mp) {
			return Detection{Kind: KindYarn, Signal: SignalMainModule}
		}
	}

	return Detection{Kind: KindNPM, Signal: SignalDefault}
}

// InstallInstructions formats the command that installs pins as dev
// dependencies with the given package manager.
func InstallInstructions(kind Kind, pins ...string) string {
	prefix, ok := instructionPrefixes[kind]
	if !ok {
		prefix = instructionPrefixes[KindNPM]
	}
	return strings.TrimSpace(prefix + " " + strings.Join(pins, " "))
}

// Kind returns the override, or a fresh detection from the environment.
func (a Advisor) Kind() Kind {
	if a.Override != "" {
		return a.Override
	}
	return Detect(a.Env).Kind
}

// Instructions returns the remediation command for all pins at once.
func (a Advisor) Instructions(pins []string) string {
	return InstallInstructions(a.Kind(), pins...)
}

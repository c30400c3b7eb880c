// SPDX-License-Identifier: MPL-2.0

package npx

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/invowk/iod/internal/runtime"
	"github.com/invowk/iod/pkg/npmspec"

	"golang.org/x/mod/semver"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// DefaultBinary is the installer executable.
	DefaultBinary = "npx"
	// DefaultNodeBinary is the node executable used to print PATH.
	DefaultNodeBinary = "node"
	// DefaultMinMajor is the oldest npm major version whose npx supports `-y -p`.
	DefaultMinMajor = 8

	// printPathScript is passed to `node -e` after the install.
	printPathScript = `'console.log(process.env.PATH)'`
)

// shellSafe matches arguments that need no quoting in a POSIX shell.
var shellSafe = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_~^-]+$`)

type (
	// Options configures an Installer. Zero values select the defaults.
	Options struct {
		Binary     string
		NodeBinary string
		MinMajor   int
		// Dir is the working directory for installer commands.
		Dir string
	}

	// Installer runs npx through a runtime.
	Installer struct {
		rt   runtime.Runtime
		opts Options
	}
)

// New creates an Installer that executes commands with rt.
func New(rt runtime.Runtime, opts Options) *Installer {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.NodeBinary == "" {
		opts.NodeBinary = DefaultNodeBinary
	}
	if opts.MinMajor <= 0 {
		opts.MinMajor = DefaultMinMajor
	}
	return &Installer{rt: rt, opts: opts}
}

// Binary returns the installer executable name.
func (i *Installer) Binary() string { return i.opts.Binary }

// VersionCommand returns the version probe command line.
func (i *Installer) VersionCommand() string {
	return i.opts.Binary + " --version"
}

// CheckVersion runs the version probe and enforces the minimum major version.
// It returns the reported version.
func (i *Installer) CheckVersion(ctx context.Context) (string, error) {
	cmdLine := i.VersionCommand()
	res := i.rt.Run(ctx, runtime.Command{Line: cmdLine, Dir: i.opts.Dir})
	if res.Failed() {
		return "", &InstallerUnavailableError{
			Command:  cmdLine,
			NotFound: res.ExitCode.IsNotFound(),
			Cause:    res.Err(),
		}
	}

	// npm may print update notices before the version.
	version := lastLine(res.Output)
	if !meetsMajor(version, i.opts.MinMajor) {
		return version, &InstallerTooOldError{Command: cmdLine, Version: version, MinMajor: i.opts.MinMajor}
	}
	return version, nil
}

// InstallCommand builds the batched install-and-print-PATH command:
//
//	npx -y -p a@1.0.0 -p b@latest node -e 'console.log(process.env.PATH)'
func (i *Installer) InstallCommand(specs []npmspec.Specifier) (string, error) {
	if len(specs) == 0 {
		return "", errors.New("no packages to install")
	}

	parts := make([]string, 0, 2+2*len(specs)+3)
	parts = append(parts, i.opts.Binary, "-y")
	for _, spec := range specs {
		arg, err := quoteArg(spec.Pin())
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", spec.Pin(), err)
		}
		parts = append(parts, "-p", arg)
	}
	parts = append(parts, i.opts.NodeBinary, "-e", printPathScript)

	return strings.Join(parts, " "), nil
}

// Install runs the batched install for all specs in a single shell
// invocation and returns the PATH printed afterwards.
func (i *Installer) Install(ctx context.Context, specs []npmspec.Specifier) (string, error) {
	pins := npmspec.Pins(specs)
	cmdLine, err := i.InstallCommand(specs)
	if err != nil {
		return "", &InstallFailedError{Command: cmdLine, Pins: pins, Cause: err}
	}

	res := i.rt.Run(ctx, runtime.Command{Line: cmdLine, Shell: true, Dir: i.opts.Dir})
	if res.Failed() {
		return "", &InstallFailedError{Command: cmdLine, Pins: pins, Cause: res.Err()}
	}
	return res.Output, nil
}

// lastLine returns the last non-empty line of output.
func lastLine(output string) string {
	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// meetsMajor reports whether version parses as semver with a major version
// of at least minMajor.
func meetsMajor(version string, minMajor int) bool {
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(semver.Major(v), fmt.Sprintf("v%d", minMajor)) >= 0
}

// quoteArg leaves shell-safe arguments untouched so the common command
// shape stays byte-for-byte stable, and quotes the rest ("a@>1.0.0").
func quoteArg(arg string) (string, error) {
	if shellSafe.MatchString(arg) {
		return arg, nil
	}
	return syntax.Quote(arg, syntax.LangPOSIX)
}

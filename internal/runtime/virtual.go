// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime interprets command lines with mvdan/sh. Programs named by
// the line (npx, node) are still executed from PATH.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return string(RuntimeTypeVirtual)
}

// Available returns whether this runtime is available
func (r *VirtualRuntime) Available() bool {
	// Virtual runtime is always available as it's built-in
	return true
}

// Run interprets cmd.Line and captures its output. Shell and non-shell
// commands are handled the same way since the interpreter is a shell.
func (r *VirtualRuntime) Run(ctx context.Context, cmd Command) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cmd.Line), "command")
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to parse command: %w", err))
	}

	workDir := cmd.Dir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return NewErrorResult(1, fmt.Errorf("failed to get working directory: %w", err))
		}
	}

	captured := &capturedOutput{}
	runner, err := interp.New(
		interp.Dir(workDir),
		interp.Env(expand.ListEnviron(buildEnv(cmd.Env)...)),
		interp.StdIO(nil, &captured.stdout, &captured.stderr),
	)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	result := &Result{}
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = ExitCode(exitStatus)
		} else {
			result.ExitCode = 1
			result.Error = fmt.Errorf("command execution failed: %w", err)
		}
	}

	result.Output = captured.stdout.String()
	result.ErrOutput = captured.stderr.String()
	return result
}

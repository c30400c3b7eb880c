// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// NativeRuntime executes commands using the system's default shell
type NativeRuntime struct {
	// Shell overrides the default shell
	Shell string
	// ShellArgs are arguments passed to the shell before the command line
	ShellArgs []string
}

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return string(RuntimeTypeNative)
}

// Available returns whether this runtime is available
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Run executes cmd and captures its output.
func (r *NativeRuntime) Run(ctx context.Context, cmd Command) *Result {
	name, args, err := r.commandArgs(cmd)
	if err != nil {
		return NewErrorResult(1, err)
	}

	c := exec.CommandContext(ctx, name, args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	c.Env = buildEnv(cmd.Env)

	captured := &capturedOutput{}
	c.Stdout = &captured.stdout
	c.Stderr = &captured.stderr

	return extractExitCode(c.Run(), captured)
}

// commandArgs returns the program and arguments for cmd.
func (r *NativeRuntime) commandArgs(cmd Command) (string, []string, error) {
	if cmd.Shell {
		shell, err := r.getShell()
		if err != nil {
			return "", nil, err
		}
		args := append(r.getShellArgs(shell), cmd.Line)
		return shell, args, nil
	}

	fields := strings.Fields(cmd.Line)
	if len(fields) == 0 {
		return "", nil, errors.New("empty command line")
	}
	return fields[0], fields[1:], nil
}

// getShell determines which shell to use
func (r *NativeRuntime) getShell() (string, error) {
	// Use configured shell if set
	if r.Shell != "" {
		return r.Shell, nil
	}

	// Platform-specific defaults
	switch runtime.GOOS {
	case "windows":
		// Try PowerShell first, then cmd
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		return exec.LookPath("cmd")
	default:
		// Unix-like: use SHELL env var, or fall back to common shells
		if shell := os.Getenv("SHELL"); shell != "" {
			return shell, nil
		}
		if sh, err := exec.LookPath("sh"); err == nil {
			return sh, nil
		}
		if bash, err := exec.LookPath("bash"); err == nil {
			return bash, nil
		}
		return "", fmt.Errorf("no shell found")
	}
}

// getShellArgs returns the arguments to pass to the shell
func (r *NativeRuntime) getShellArgs(shell string) []string {
	if len(r.ShellArgs) > 0 {
		return append([]string(nil), r.ShellArgs...)
	}

	base := filepath.Base(shell)
	// Also handle Windows paths on Unix systems
	if lastSlash := strings.LastIndex(base, "\\"); lastSlash >= 0 {
		base = base[lastSlash+1:]
	}
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		// Assume POSIX shell
		return []string{"-c"}
	}
}

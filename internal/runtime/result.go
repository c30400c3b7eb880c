// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"strings"
)

type (
	// Result contains the result of a command execution
	Result struct {
		// ExitCode is the exit code of the command
		ExitCode ExitCode
		// Error contains any error that prevented the command from running
		Error error
		// Output contains captured stdout
		Output string
		// ErrOutput contains captured stderr
		ErrOutput string
	}

	// ExitStatusError describes a command that ran but exited non-zero.
	ExitStatusError struct {
		Code   ExitCode
		Stderr string
	}
)

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and the given stdout.
func NewSuccessResult(output string) *Result {
	return &Result{Output: output}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than infrastructure failures.
func NewExitCodeResult(code ExitCode, stderr string) *Result {
	return &Result{ExitCode: code, ErrOutput: stderr}
}

// Success returns true if the command executed successfully
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// Failed is the inverse of Success.
func (r *Result) Failed() bool { return !r.Success() }

// Err returns nil for successful results, the infrastructure error when the
// command could not run, or an *ExitStatusError otherwise.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}
	if r.Error != nil {
		return r.Error
	}
	return &ExitStatusError{Code: r.ExitCode, Stderr: strings.TrimSpace(r.ErrOutput)}
}

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, e.Stderr)
}

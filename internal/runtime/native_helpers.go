// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"errors"
	"os/exec"
)

// capturedOutput holds the stdout and stderr buffers of one execution.
type capturedOutput struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// extractExitCode determines the exit code from a command execution error.
// Returns a Result with exit code, output strings, and any error.
func extractExitCode(err error, captured *capturedOutput) *Result {
	result := &Result{}

	if captured != nil {
		result.Output = captured.stdout.String()
		result.ErrOutput = captured.stderr.String()
	}

	if err == nil {
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Command executed but returned non-zero exit code
		exitCode := ExitCode(exitErr.ExitCode())
		if validateErr := exitCode.Validate(); validateErr != nil {
			result.ExitCode = 1
			result.Error = validateErr
			return result
		}
		result.ExitCode = exitCode
		return result
	}

	// The executable could not be started; use the shell's status for a missing command.
	if errors.Is(err, exec.ErrNotFound) {
		result.ExitCode = ExitCodeNotFound
		result.Error = err
		return result
	}

	// Some other error (e.g., permission denied)
	result.ExitCode = 1
	result.Error = err
	return result
}

// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLoadAfterInstallFailed is returned when an installed package still cannot be loaded.
var ErrLoadAfterInstallFailed = errors.New("load after install failed")

type (
	// ResolutionError is the single error a failed batch returns.
	ResolutionError struct {
		// ImportPaths are the packages that were still missing.
		ImportPaths []string
		// Names are the package names in ImportPaths, without subpaths.
		Names []string
		// Cause is the root cause, unmodified.
		Cause error
		// Remediation is the command that installs Names permanently.
		// It is empty when the input could not be parsed.
		Remediation string
	}

	// LoadAfterInstallFailedError is returned when a package was installed
	// but could not be loaded from the ephemeral directory.
	// It wraps ErrLoadAfterInstallFailed for errors.Is() compatibility.
	LoadAfterInstallFailedError struct {
		ImportPath string
		Dir        string
		Cause      error
	}
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "IOD (Import On-Demand) failed for %s with message:\n", strings.Join(e.ImportPaths, ", "))
	if e.Cause != nil {
		sb.WriteString(indent(e.Cause.Error()))
	}
	if e.Remediation != "" {
		fmt.Fprintf(&sb, "\n\nYou should install %s locally:\n    %s", strings.Join(e.Names, ", "), e.Remediation)
	}
	return sb.String()
}

// Unwrap returns the root cause so callers can match the failing stage with errors.Is.
func (e *ResolutionError) Unwrap() error { return e.Cause }

// Error implements the error interface.
func (e *LoadAfterInstallFailedError) Error() string {
	return fmt.Sprintf("installed %s into %s but could not load it: %v", e.ImportPath, e.Dir, e.Cause)
}

// Unwrap returns both the sentinel and the loader error.
func (e *LoadAfterInstallFailedError) Unwrap() []error {
	return []error{ErrLoadAfterInstallFailed, e.Cause}
}

func indent(msg string) string {
	lines := strings.Split(msg, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "    " + l
		}
	}
	return strings.Join(lines, "\n")
}

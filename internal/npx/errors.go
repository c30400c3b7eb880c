// SPDX-License-Identifier: MPL-2.0

package npx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInstallerUnavailable is returned when the version probe could not run.
	ErrInstallerUnavailable = errors.New("installer unavailable")
	// ErrInstallerTooOld is returned when the installer is below the minimum major version.
	ErrInstallerTooOld = errors.New("installer too old")
	// ErrInstallFailed is returned when the batched install command fails.
	ErrInstallFailed = errors.New("install failed")
)

type (
	// InstallerUnavailableError is returned when `<installer> --version` fails.
	// It wraps ErrInstallerUnavailable for errors.Is() compatibility.
	InstallerUnavailableError struct {
		Command string
		// NotFound is set when the installer binary itself could not be found.
		NotFound bool
		Cause    error
	}

	// InstallerTooOldError is returned when the reported version is below
	// the required major version, or is not a version at all.
	// It wraps ErrInstallerTooOld for errors.Is() compatibility.
	InstallerTooOldError struct {
		Command  string
		Version  string
		MinMajor int
	}

	// InstallFailedError is returned when the batched install command fails.
	// Cause carries the process error text unmodified.
	// It wraps ErrInstallFailed for errors.Is() compatibility.
	InstallFailedError struct {
		Command string
		Pins    []string
		Cause   error
	}
)

// Error implements the error interface.
func (e *InstallerUnavailableError) Error() string {
	msg := fmt.Sprintf("Couldn't execute %s. Is npm installed and up-to-date?", e.Command)
	if e.NotFound {
		msg += fmt.Sprintf(" ('%s' was not found in PATH)", strings.Fields(e.Command)[0])
	}
	return msg
}

// Unwrap returns both the sentinel and the process error.
func (e *InstallerUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInstallerUnavailable}
	}
	return []error{ErrInstallerUnavailable, e.Cause}
}

// Error implements the error interface.
func (e *InstallerTooOldError) Error() string {
	return fmt.Sprintf("Require npm version %d+. Got '%s' when running '%s'", e.MinMajor, e.Version, e.Command)
}

// Unwrap returns ErrInstallerTooOld so callers can use errors.Is for programmatic detection.
func (e *InstallerTooOldError) Unwrap() error { return ErrInstallerTooOld }

// Error implements the error interface.
func (e *InstallFailedError) Error() string {
	msg := fmt.Sprintf("Failed installing %s using: %s.", strings.Join(e.Pins, " "), e.Command)
	if e.Cause != nil {
		msg += "\n" + e.Cause.Error()
	}
	return msg
}

// Unwrap returns both the sentinel and the process error.
func (e *InstallFailedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInstallFailed}
	}
	return []error{ErrInstallFailed, e.Cause}
}

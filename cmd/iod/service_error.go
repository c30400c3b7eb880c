// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/iod/internal/issue"
	"github.com/invowk/iod/internal/npx"
	"github.com/invowk/iod/internal/resolve"
	"github.com/invowk/iod/internal/runtime"
	"github.com/invowk/iod/internal/searchpath"
	"github.com/invowk/iod/pkg/npmspec"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before formatting the underlying error.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
// All construction sites must use this instead of struct literals.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyResolveError maps a resolution failure to the issue catalog entry
// that explains it and returns a styled message for CLI rendering.
// The first matching failure kind wins.
func classifyResolveError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, npmspec.ErrInvalidSpecifier):
		issueID = issue.InvalidSpecifierId
	case errors.Is(err, npx.ErrInstallerUnavailable):
		issueID = issue.InstallerUnavailableId
	case errors.Is(err, npx.ErrInstallerTooOld):
		issueID = issue.InstallerTooOldId
	case errors.Is(err, npx.ErrInstallFailed):
		issueID = issue.InstallFailedId
	case errors.Is(err, searchpath.ErrEphemeralDirectoryNotFound):
		issueID = issue.EphemeralDirectoryNotFoundId
	case errors.Is(err, searchpath.ErrUnexpectedInstallLayout):
		issueID = issue.UnexpectedInstallLayoutId
	case errors.Is(err, resolve.ErrLoadAfterInstallFailed):
		issueID = issue.LoadAfterInstallFailedId
	case errors.Is(err, runtime.ErrRuntimeNotAvailable):
		issueID = issue.RuntimeNotAvailableId
	}

	return issueID, styledErrorMessage(err, verbose)
}

// styledErrorMessage renders err as a red "Error:" line for stderr.
func styledErrorMessage(err error, verbose bool) string {
	return fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// renderServiceError renders a ServiceError in the CLI layer.
// It prints any styled message first, then the optional issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, stylePath string) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(stylePath)
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

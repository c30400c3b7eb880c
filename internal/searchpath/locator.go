// SPDX-License-Identifier: MPL-2.0

package searchpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// StorageDirName is the directory npm installs packages into.
	StorageDirName = "node_modules"

	// DefaultMarker matches the npx cache namespace on POSIX (~/.npm/_npx/)
	// and Windows (%LocalAppData%\npm-cache\_npx\).
	DefaultMarker = `[/\\](?:\.npm|npm-cache)[/\\]_npx[/\\]`

	// markerDisplay is shown in diagnostics instead of the regular expression.
	markerDisplay = "/.npm/_npx/"
)

var (
	// ErrEphemeralDirectoryNotFound is returned when no PATH segment is in the npx cache.
	ErrEphemeralDirectoryNotFound = errors.New("ephemeral install directory not found")
	// ErrUnexpectedInstallLayout is returned when the npx segment's parent is not node_modules.
	ErrUnexpectedInstallLayout = errors.New("unexpected install layout")

	defaultMarker = regexp.MustCompile(DefaultMarker)
)

type (
	// Locator finds the ephemeral install directory in installer output.
	Locator interface {
		Locate(output string) (string, error)
	}

	// NPXCacheLocator locates the npx cache entry among PATH segments.
	NPXCacheLocator struct {
		// Separator splits the search path. Empty means os.PathListSeparator.
		Separator string
		// Marker matches segments inside the npx cache. Nil means DefaultMarker.
		Marker *regexp.Regexp
	}

	// EphemeralDirectoryNotFoundError lists the segments that were searched.
	// It wraps ErrEphemeralDirectoryNotFound for errors.Is() compatibility.
	EphemeralDirectoryNotFoundError struct {
		Candidates []string
	}

	// UnexpectedInstallLayoutError is returned when the matching segment's
	// parent directory is not a node_modules directory.
	// It wraps ErrUnexpectedInstallLayout for errors.Is() compatibility.
	UnexpectedInstallLayoutError struct {
		Segment string
		Parent  string
	}
)

// Error implements the error interface.
func (e *EphemeralDirectoryNotFoundError) Error() string {
	candidates, err := json.Marshal(e.Candidates)
	if err != nil {
		candidates = []byte(strings.Join(e.Candidates, "\n"))
	}
	return fmt.Sprintf("Failed to find temporary install directory. Looking for paths matching '%s' in:\n%s", markerDisplay, candidates)
}

// Unwrap returns ErrEphemeralDirectoryNotFound so callers can use errors.Is for programmatic detection.
func (e *EphemeralDirectoryNotFoundError) Unwrap() error { return ErrEphemeralDirectoryNotFound }

// Error implements the error interface.
func (e *UnexpectedInstallLayoutError) Error() string {
	return fmt.Sprintf("Found NPX temporary path of '%s' but expected to be able to find a %s directory by looking in '..' (got '%s').",
		e.Segment, StorageDirName, e.Parent)
}

// Unwrap returns ErrUnexpectedInstallLayout so callers can use errors.Is for programmatic detection.
func (e *UnexpectedInstallLayoutError) Unwrap() error { return ErrUnexpectedInstallLayout }

// NewNPXCacheLocator returns a locator for the host's path list separator.
func NewNPXCacheLocator() *NPXCacheLocator {
	return &NPXCacheLocator{}
}

// Locate returns the node_modules directory that holds the packages npx
// installed. The first matching segment wins; it is expected to be that
// directory's .bin folder.
func (l *NPXCacheLocator) Locate(output string) (string, error) {
	segments := l.Segments(output)

	marker := l.Marker
	if marker == nil {
		marker = defaultMarker
	}

	for _, seg := range segments {
		if !marker.MatchString(seg) {
			continue
		}
		parent := parentDir(seg)
		if !strings.HasSuffix(parent, StorageDirName) {
			return "", &UnexpectedInstallLayoutError{Segment: seg, Parent: parent}
		}
		return parent, nil
	}

	return "", &EphemeralDirectoryNotFoundError{Candidates: segments}
}

// Segments splits the search path printed by the install command. Installer
// chatter may precede it, so only the last non-empty line is used.
func (l *NPXCacheLocator) Segments(output string) []string {
	sep := l.Separator
	if sep == "" {
		sep = string(os.PathListSeparator)
	}
	return strings.Split(lastLine(output), sep)
}

func lastLine(output string) string {
	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// parentDir resolves ".." for both separator styles, independent of the host.
func parentDir(seg string) string {
	if !strings.Contains(seg, `\`) {
		seg = path.Clean(seg)
	}
	trimmed := strings.TrimRight(seg, `/\`)
	idx := strings.LastIndexAny(trimmed, `/\`)
	if idx < 0 {
		return filepath.Dir(trimmed)
	}
	if idx == 0 {
		return trimmed[:1]
	}
	return trimmed[:idx]
}

// SPDX-License-Identifier: MPL-2.0

package npmspec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// LatestTag is the version used when a specifier does not request one.
	LatestTag = "latest"

	// maxNameLength is the npm registry limit for a full package name.
	maxNameLength = 214
)

// ErrInvalidSpecifier is the sentinel error wrapped by InvalidSpecifierError.
var ErrInvalidSpecifier = errors.New("invalid package specifier")

// namePattern accepts url-safe npm names, optionally scoped. Uppercase is
// tolerated for legacy packages that predate the lowercase rule.
var namePattern = regexp.MustCompile(`^(?:@[a-zA-Z0-9~][a-zA-Z0-9._~-]*/)?[a-zA-Z0-9~][a-zA-Z0-9._~-]*$`)

type (
	// Specifier is a parsed package specifier.
	Specifier struct {
		// Raw is the input exactly as given by the caller.
		Raw string
		// Name is the bare package name, including the scope when present.
		Name string
		// Version is the requested version, range or tag. Defaults to LatestTag.
		Version string
		// Subpath is the remainder of the import path after name and version.
		Subpath string
	}

	// InvalidSpecifierError is returned for malformed specifiers and for
	// batches that request the same package name twice.
	// It wraps ErrInvalidSpecifier for errors.Is() compatibility.
	InvalidSpecifierError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidSpecifierError) Error() string {
	return fmt.Sprintf("invalid package specifier %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidSpecifier so callers can use errors.Is for programmatic detection.
func (e *InvalidSpecifierError) Unwrap() error { return ErrInvalidSpecifier }

// Parse splits raw into name, version and subpath.
//
// A leading "@scope/" segment is consumed before looking for the "@version"
// marker, so "@org/pkg@1.2.3/sub/path" yields name "@org/pkg", version
// "1.2.3" and subpath "sub/path".
func Parse(raw string) (Specifier, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Specifier{}, &InvalidSpecifierError{Value: raw, Reason: "empty package name"}
	}

	scope := ""
	rest := s
	if strings.HasPrefix(s, "@") {
		slash := strings.IndexByte(s, '/')
		if slash < 0 {
			return Specifier{}, &InvalidSpecifierError{Value: raw, Reason: "scoped name must look like @scope/name"}
		}
		scope, rest = s[:slash+1], s[slash+1:]
	}

	name, version, subpath := rest, "", ""
	if idx := strings.IndexAny(rest, "@/"); idx >= 0 {
		name = rest[:idx]
		tail := rest[idx:]
		if tail[0] == '@' {
			version, subpath, _ = strings.Cut(tail[1:], "/")
			if version == "" {
				return Specifier{}, &InvalidSpecifierError{Value: raw, Reason: "empty version after '@'"}
			}
		} else {
			subpath = tail[1:]
		}
	}

	if name == "" {
		return Specifier{}, &InvalidSpecifierError{Value: raw, Reason: "empty package name"}
	}
	full := scope + name
	if len(full) > maxNameLength {
		return Specifier{}, &InvalidSpecifierError{
			Value:  raw,
			Reason: fmt.Sprintf("package name longer than %d characters", maxNameLength),
		}
	}
	if !namePattern.MatchString(full) {
		return Specifier{}, &InvalidSpecifierError{Value: raw, Reason: fmt.Sprintf("%q is not a valid package name", full)}
	}

	if version == "" {
		version = LatestTag
	}

	return Specifier{
		Raw:     raw,
		Name:    full,
		Version: version,
		Subpath: strings.Trim(subpath, "/"),
	}, nil
}

// ParseAll parses every raw specifier and rejects batches in which two
// specifiers name the same package, whatever their versions.
func ParseAll(raws []string) ([]Specifier, error) {
	specs := make([]Specifier, 0, len(raws))
	seen := make(map[string]string, len(raws)) // name -> raw of first occurrence

	for _, raw := range raws {
		spec, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[spec.Name]; dup {
			return nil, &InvalidSpecifierError{
				Value:  raw,
				Reason: fmt.Sprintf("duplicate package name %q (already requested by %q)", spec.Name, first),
			}
		}
		seen[spec.Name] = raw
		specs = append(specs, spec)
	}

	return specs, nil
}

// ImportPath returns the name joined with the subpath. The version is never
// part of it.
func (s Specifier) ImportPath() string {
	if s.Subpath == "" {
		return s.Name
	}
	return s.Name + "/" + s.Subpath
}

// Pin returns "name@version" as passed to installers and remediation text.
func (s Specifier) Pin() string {
	return s.Name + "@" + s.Version
}

// String returns the raw input.
func (s Specifier) String() string { return s.Raw }

// Pins maps specs to their "name@version" form, preserving order.
func Pins(specs []Specifier) []string {
	pins := make([]string, len(specs))
	for i, s := range specs {
		pins[i] = s.Pin()
	}
	return pins
}

// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// SourceLocal marks a module found in the caller's own module graph.
	SourceLocal Source = "local"
	// SourceEphemeral marks a module loaded from a throwaway install.
	SourceEphemeral Source = "ephemeral"

	// LoaderTypeNode selects NodeLoader.
	LoaderTypeNode LoaderType = "node"
	// LoaderTypeFS selects FSLoader.
	LoaderTypeFS LoaderType = "fs"
)

var (
	// ErrModuleNotFound is returned when an import path cannot be resolved or loaded.
	ErrModuleNotFound = errors.New("module not found")
	// ErrInvalidLoaderType is returned when a LoaderType value is not recognized.
	ErrInvalidLoaderType = errors.New("invalid loader type")
)

type (
	// Source records where a module was loaded from.
	Source string

	// LoaderType identifies a loader backend.
	//
	//nolint:revive // LoaderType reads better than Type at call sites
	LoaderType string

	// Manifest is the subset of package.json the loader uses.
	Manifest struct {
		Name    string          `json:"name,omitempty"`
		Version string          `json:"version,omitempty"`
		Main    string          `json:"main,omitempty"`
		Type    string          `json:"type,omitempty"`
		Exports json.RawMessage `json:"exports,omitempty"`
	}

	// Module is a loaded package.
	Module struct {
		// ImportPath is the path that was requested: name plus optional subpath.
		ImportPath string `json:"import_path" toml:"import_path"`
		// Name is the package name.
		Name string `json:"name" toml:"name"`
		// Version is the installed version from package.json.
		Version string `json:"version" toml:"version"`
		// Root is the package directory.
		Root string `json:"root" toml:"root"`
		// Entry is the file ImportPath resolved to.
		Entry string `json:"entry" toml:"entry"`
		// Source tells whether the module came from the local graph or an ephemeral install.
		Source Source `json:"source" toml:"source"`
		// Manifest is the parsed package.json.
		Manifest Manifest `json:"-" toml:"-"`
	}

	// Loader resolves and loads import paths.
	Loader interface {
		// LoadByName loads importPath as the caller's own code would.
		LoadByName(ctx context.Context, importPath string) (*Module, error)
		// LoadFromDirectory loads importPath with resolution rooted at dir,
		// a node_modules directory, instead of the caller's location.
		LoadFromDirectory(ctx context.Context, dir, importPath string) (*Module, error)
	}

	// ModuleNotFoundError is returned when a module cannot be resolved or loaded.
	// It wraps ErrModuleNotFound for errors.Is() compatibility.
	ModuleNotFoundError struct {
		ImportPath string
		// From is the directory resolution started at.
		From  string
		Cause error
	}

	// InvalidLoaderTypeError is returned when a LoaderType value is not recognized.
	// It wraps ErrInvalidLoaderType for errors.Is() compatibility.
	InvalidLoaderTypeError struct {
		Value LoaderType
	}
)

// Error implements the error interface.
func (e *ModuleNotFoundError) Error() string {
	msg := fmt.Sprintf("Cannot find module '%s'", e.ImportPath)
	if e.From != "" {
		msg += " from '" + e.From + "'"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ModuleNotFoundError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrModuleNotFound}
	}
	return []error{ErrModuleNotFound, e.Cause}
}

// Error implements the error interface.
func (e *InvalidLoaderTypeError) Error() string {
	return fmt.Sprintf("invalid loader type %q (valid: %s, %s)", e.Value, LoaderTypeNode, LoaderTypeFS)
}

// Unwrap returns ErrInvalidLoaderType so callers can use errors.Is for programmatic detection.
func (e *InvalidLoaderTypeError) Unwrap() error { return ErrInvalidLoaderType }

// IsValid returns whether the LoaderType is a known backend,
// and a list of validation errors if it is not.
func (t LoaderType) IsValid() (bool, []error) {
	switch t {
	case LoaderTypeNode, LoaderTypeFS:
		return true, nil
	default:
		return false, []error{&InvalidLoaderTypeError{Value: t}}
	}
}

// String returns the loader type name.
func (t LoaderType) String() string { return string(t) }

// String returns the source name.
func (s Source) String() string { return string(s) }

// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Runtime type constants for the supported execution environments.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

var (
	// ErrInvalidRuntimeType is returned when a RuntimeType value is not recognized.
	ErrInvalidRuntimeType = errors.New("invalid runtime type")
	// ErrRuntimeNotAvailable is returned when a runtime is not registered or
	// cannot run on this system.
	ErrRuntimeNotAvailable = errors.New("runtime not available")
)

type (
	// Command is a single command line to execute.
	Command struct {
		// Line is the command line, e.g. "npx --version".
		Line string
		// Shell runs Line through a command shell. Without it the line is
		// split on whitespace and executed directly.
		Shell bool
		// Dir is the working directory. Empty means the current directory.
		Dir string
		// Env holds variables added on top of the inherited environment.
		Env map[string]string
	}

	// Runtime defines the interface for command execution.
	Runtime interface {
		// Name returns the runtime name
		Name() string
		// Available returns whether this runtime is available on the current system
		Available() bool
		// Run executes cmd, capturing its output.
		Run(ctx context.Context, cmd Command) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// InvalidRuntimeTypeError is returned when a RuntimeType value is not recognized.
	// It wraps ErrInvalidRuntimeType for errors.Is() compatibility.
	InvalidRuntimeTypeError struct {
		Value RuntimeType
	}

	// Registry holds all available runtimes
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// Error implements the error interface.
func (e *InvalidRuntimeTypeError) Error() string {
	return fmt.Sprintf("invalid runtime type %q (valid: %s, %s)", e.Value, RuntimeTypeNative, RuntimeTypeVirtual)
}

// Unwrap returns ErrInvalidRuntimeType so callers can use errors.Is for programmatic detection.
func (e *InvalidRuntimeTypeError) Unwrap() error { return ErrInvalidRuntimeType }

// IsValid returns whether the RuntimeType is a known runtime,
// and a list of validation errors if it is not.
func (t RuntimeType) IsValid() (bool, []error) {
	switch t {
	case RuntimeTypeNative, RuntimeTypeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidRuntimeTypeError{Value: t}}
	}
}

// String returns the runtime type name.
func (t RuntimeType) String() string { return string(t) }

// NewRegistry creates a new runtime registry
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[RuntimeType]Runtime),
	}
}

// Register adds a runtime to the registry
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	if ok, errs := typ.IsValid(); !ok {
		return nil, errs[0]
	}
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' not registered: %w", typ, ErrRuntimeNotAvailable)
	}
	return rt, nil
}

// Available returns all available runtimes, sorted by name.
func (r *Registry) Available() []RuntimeType {
	var types []RuntimeType
	for typ, rt := range r.runtimes {
		if rt.Available() {
			types = append(types, typ)
		}
	}
	slices.Sort(types)
	return types
}

// Run executes cmd with the runtime registered under typ.
func (r *Registry) Run(ctx context.Context, typ RuntimeType, cmd Command) *Result {
	rt, err := r.Get(typ)
	if err != nil {
		return NewErrorResult(1, err)
	}

	if !rt.Available() {
		return NewErrorResult(1, fmt.Errorf("runtime '%s' is not available on this system: %w", rt.Name(), ErrRuntimeNotAvailable))
	}

	if strings.TrimSpace(cmd.Line) == "" {
		return NewErrorResult(1, errors.New("empty command line"))
	}

	return rt.Run(ctx, cmd)
}

// SPDX-License-Identifier: MPL-2.0

package runtime

import "context"

// BuildRegistryOptions configures runtime registry construction.
type BuildRegistryOptions struct {
	// Shell overrides the native runtime's shell detection.
	Shell string
}

// BuildRegistry creates a registry with the native and virtual runtimes.
func BuildRegistry(opts BuildRegistryOptions) *Registry {
	reg := NewRegistry()

	native := NewNativeRuntime()
	native.Shell = opts.Shell
	reg.Register(RuntimeTypeNative, native)
	reg.Register(RuntimeTypeVirtual, NewVirtualRuntime())

	return reg
}

// Bound pins a registry to one runtime type so it can be handed to
// components that only need a Runtime.
type Bound struct {
	Registry *Registry
	Type     RuntimeType
}

// Name returns the bound runtime type.
func (b Bound) Name() string { return string(b.Type) }

// Available reports whether the bound runtime exists and is available.
func (b Bound) Available() bool {
	rt, err := b.Registry.Get(b.Type)
	return err == nil && rt.Available()
}

// Run delegates to Registry.Run.
func (b Bound) Run(ctx context.Context, cmd Command) *Result {
	return b.Registry.Run(ctx, b.Type, cmd)
}

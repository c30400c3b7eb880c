// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"github.com/spf13/afero"

	"github.com/invowk/iod/internal/runtime"
)

// Options selects and configures a loader backend.
type Options struct {
	Type LoaderType
	// Runtime runs node for LoaderTypeNode.
	Runtime runtime.Runtime
	// Fs backs LoaderTypeFS. Nil means the OS filesystem.
	Fs          afero.Fs
	BaseDir     string
	NodeBinary  string
	ResolveOnly bool
}

// New builds the loader named by opts.Type.
func New(opts Options) (Loader, error) {
	if ok, errs := opts.Type.IsValid(); !ok {
		return nil, errs[0]
	}

	if opts.Type == LoaderTypeFS {
		return NewFSLoader(opts.Fs, opts.BaseDir), nil
	}
	return NewNodeLoader(opts.Runtime, NodeOptions{
		NodeBinary:  opts.NodeBinary,
		BaseDir:     opts.BaseDir,
		ResolveOnly: opts.ResolveOnly,
	}), nil
}

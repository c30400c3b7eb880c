// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/invowk/iod/internal/loader"
	"github.com/invowk/iod/pkg/npmspec"
)

const (
	// NotFoundLocally means the local probe failed and the entry needs an install.
	NotFoundLocally State = iota
	// Loaded means Module holds the loaded package.
	Loaded
)

type (
	// State is the resolution state of an Entry.
	State int

	// Entry is the working record for one specifier within a batch.
	Entry struct {
		Spec npmspec.Specifier
		// ImportPath is the name plus subpath. It never carries a version.
		ImportPath string
		State      State
		// Module is set once State is Loaded.
		Module *loader.Module
		// ProbeErr is why the local probe failed. It is logged, never returned.
		ProbeErr error
	}
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case NotFoundLocally:
		return "not found locally"
	default:
		return "unknown"
	}
}

func newEntries(specs []npmspec.Specifier) []*Entry {
	entries := make([]*Entry, len(specs))
	for i, spec := range specs {
		entries[i] = &Entry{Spec: spec, ImportPath: spec.ImportPath(), State: NotFoundLocally}
	}
	return entries
}

// probe tries every entry against the local module graph in parallel. Any
// load error counts as a miss: a package that is present but throws while
// loading is indistinguishable from an absent one.
func probe(ctx context.Context, l loader.Loader, entries []*Entry) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		g.Go(func() error {
			mod, err := l.LoadByName(gctx, e.ImportPath)
			if err != nil {
				e.ProbeErr = err
				return nil
			}
			e.State = Loaded
			e.Module = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func missing(entries []*Entry) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if e.State == NotFoundLocally {
			out = append(out, e)
		}
	}
	return out
}

func specsOf(entries []*Entry) []npmspec.Specifier {
	specs := make([]npmspec.Specifier, len(entries))
	for i, e := range entries {
		specs[i] = e.Spec
	}
	return specs
}

func importPathsOf(entries []*Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.ImportPath
	}
	return paths
}

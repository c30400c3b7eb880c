// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/iod/internal/loader"
	"github.com/invowk/iod/internal/searchpath"
	"github.com/invowk/iod/pkg/npmspec"
)

type (
	// Installer performs the version gate and the batched ephemeral install.
	// *npx.Installer implements it.
	Installer interface {
		CheckVersion(ctx context.Context) (string, error)
		InstallCommand(specs []npmspec.Specifier) (string, error)
		Install(ctx context.Context, specs []npmspec.Specifier) (string, error)
	}

	// Advisor formats remediation commands. pkgmgr.Advisor implements it.
	Advisor interface {
		Instructions(pins []string) string
	}

	// ProgressFunc receives human-readable progress notices.
	ProgressFunc func(message string)

	// Options wires a Resolver's collaborators.
	Options struct {
		Loader    loader.Loader
		Installer Installer
		Locator   searchpath.Locator
		Advisor   Advisor
		// Progress defaults to Logger.Info.
		Progress ProgressFunc
		// Logger defaults to log.Default().
		Logger *log.Logger
	}

	// Resolver loads packages, installing the missing ones on demand.
	// It keeps no state between calls; concurrent calls are independent and
	// may install the same package twice.
	Resolver struct {
		loader    loader.Loader
		installer Installer
		locator   searchpath.Locator
		advisor   Advisor
		progress  ProgressFunc
		logger    *log.Logger
	}
)

// New creates a Resolver.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(msg string) { logger.Info(msg) }
	}
	locator := opts.Locator
	if locator == nil {
		locator = searchpath.NewNPXCacheLocator()
	}

	return &Resolver{
		loader:    opts.Loader,
		installer: opts.Installer,
		locator:   locator,
		advisor:   opts.Advisor,
		progress:  progress,
		logger:    logger,
	}
}

// Resolve loads a single package.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*loader.Module, error) {
	mods, err := r.ResolveAll(ctx, []string{raw})
	if err != nil {
		return nil, err
	}
	return mods[0], nil
}

// ResolveAll loads every package and returns the modules in input order.
func (r *Resolver) ResolveAll(ctx context.Context, raws []string) ([]*loader.Module, error) {
	entries, err := r.Run(ctx, raws)
	if err != nil {
		return nil, err
	}

	mods := make([]*loader.Module, len(entries))
	for i, e := range entries {
		mods[i] = e.Module
	}
	return mods, nil
}

// Run executes one batch and returns its entries, all Loaded on success.
func (r *Resolver) Run(ctx context.Context, raws []string) ([]*Entry, error) {
	specs, err := npmspec.ParseAll(raws)
	if err != nil {
		return nil, &ResolutionError{ImportPaths: raws, Cause: err}
	}
	if len(specs) == 0 {
		return nil, nil
	}

	entries := newEntries(specs)
	if err := probe(ctx, r.loader, entries); err != nil {
		return nil, err
	}

	miss := missing(entries)
	if len(miss) == 0 {
		return entries, nil
	}
	for _, e := range miss {
		r.logger.Debug("local probe failed", "import_path", e.ImportPath, "err", e.ProbeErr)
	}

	if err := r.installAndLoad(ctx, miss); err != nil {
		return nil, r.fail(miss, err)
	}
	return entries, nil
}

func (r *Resolver) installAndLoad(ctx context.Context, miss []*Entry) error {
	paths := importPathsOf(miss)
	specs := specsOf(miss)

	r.progress(fmt.Sprintf("%s not available locally. Attempting to use npx to install temporarily.", strings.Join(paths, ", ")))

	version, err := r.installer.CheckVersion(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("installer version accepted", "version", version)

	if cmdLine, err := r.installer.InstallCommand(specs); err == nil {
		r.progress(fmt.Sprintf("Installing... (%s)", cmdLine))
	}

	output, err := r.installer.Install(ctx, specs)
	if err != nil {
		return err
	}

	dir, err := r.locator.Locate(output)
	if err != nil {
		return err
	}
	r.progress(fmt.Sprintf("Installed into %s.", dir))
	r.progress(fmt.Sprintf("To skip this step in future, run: %s", r.remediation(miss)))

	for _, e := range miss {
		mod, err := r.loader.LoadFromDirectory(ctx, dir, e.ImportPath)
		if err != nil {
			return &LoadAfterInstallFailedError{ImportPath: e.ImportPath, Dir: dir, Cause: err}
		}
		e.State = Loaded
		e.Module = mod
	}
	return nil
}

// fail builds the batch error. Entries loaded before the failure are still
// reported: the batch has no partial success.
func (r *Resolver) fail(miss []*Entry, cause error) error {
	names := make([]string, len(miss))
	for i, e := range miss {
		names[i] = e.Spec.Name
	}
	return &ResolutionError{
		ImportPaths: importPathsOf(miss),
		Names:       names,
		Cause:       cause,
		Remediation: r.remediation(miss),
	}
}

func (r *Resolver) remediation(entries []*Entry) string {
	if r.advisor == nil {
		return ""
	}
	return r.advisor.Instructions(npmspec.Pins(specsOf(entries)))
}

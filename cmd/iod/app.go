// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/invowk/iod/internal/config"
	"github.com/invowk/iod/internal/issue"
	"github.com/invowk/iod/internal/loader"
	"github.com/invowk/iod/internal/npx"
	"github.com/invowk/iod/internal/pkgmgr"
	"github.com/invowk/iod/internal/resolve"
	"github.com/invowk/iod/internal/runtime"
)

type (
	rootFlagsContextKey struct{}

	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: every Cobra command handler receives an App reference and builds
	// its resolver through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer

		runtime runtime.Runtime
		fs      afero.Fs
		env     pkgmgr.Env
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Runtime executes npx and node. Nil builds the runtime named by the config.
		Runtime runtime.Runtime
		// Fs backs the fs loader. Nil means the OS filesystem.
		Fs afero.Fs
		// Env feeds package manager detection. Nil snapshots the process environment.
		Env    *pkgmgr.Env
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
		Path(ctx context.Context, opts config.LoadOptions) (string, error)
	}

	// services is the per-invocation object graph built from configuration.
	services struct {
		cfg       *config.Config
		verbose   bool
		logger    *log.Logger
		runtime   runtime.Runtime
		installer *npx.Installer
		loader    loader.Loader
		advisor   pkgmgr.Advisor
		resolver  *resolve.Resolver
	}

	serviceOptions struct {
		// ResolveOnly stops the node loader from executing the package.
		ResolveOnly bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	env := pkgmgr.EnvFromOS()
	if deps.Env != nil {
		env = *deps.Env
	}

	return &App{
		Config:  deps.Config,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		runtime: deps.Runtime,
		fs:      deps.Fs,
		env:     env,
	}, nil
}

// contextWithRootFlags attaches the persistent flag values to the context.
func contextWithRootFlags(ctx context.Context, flags rootFlags) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, rootFlagsContextKey{}, flags)
}

// rootFlagsFromContext extracts the persistent flag values from context.
func rootFlagsFromContext(ctx context.Context) rootFlags {
	if v, ok := ctx.Value(rootFlagsContextKey{}).(rootFlags); ok {
		return v
	}
	return rootFlags{}
}

// loadConfig loads the configuration selected by --config.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	flags := rootFlagsFromContext(ctx)
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId, styledErrorMessage(err, flags.verbose))
	}
	return cfg, nil
}

// buildServices builds the resolver and its collaborators for one command run.
func (a *App) buildServices(ctx context.Context, opts serviceOptions) (*services, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	verbose := rootFlagsFromContext(ctx).verbose || cfg.UI.Verbose
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	rt := a.runtime
	if rt == nil {
		reg := runtime.BuildRegistry(runtime.BuildRegistryOptions{Shell: cfg.Shell})
		rt = runtime.Bound{Registry: reg, Type: runtime.RuntimeType(cfg.Runtime)}
	}
	if !rt.Available() {
		err := fmt.Errorf("runtime '%s' is not available on this system: %w", rt.Name(), runtime.ErrRuntimeNotAvailable)
		return nil, newServiceError(err, issue.RuntimeNotAvailableId, styledErrorMessage(err, verbose))
	}

	workDir := cfg.Installer.WorkDir
	if workDir == "" {
		if wd, wdErr := os.Getwd(); wdErr == nil {
			workDir = wd
		}
	} else if abs, absErr := filepath.Abs(workDir); absErr == nil {
		workDir = abs
	}

	ld, err := loader.New(loader.Options{
		Type:        loader.LoaderType(cfg.Loader),
		Runtime:     rt,
		Fs:          a.fs,
		BaseDir:     workDir,
		NodeBinary:  cfg.Installer.NodeBinary,
		ResolveOnly: opts.ResolveOnly,
	})
	if err != nil {
		return nil, err
	}

	installer := npx.New(rt, npx.Options{
		Binary:     cfg.Installer.Binary,
		NodeBinary: cfg.Installer.NodeBinary,
		MinMajor:   cfg.Installer.MinMajor,
		Dir:        workDir,
	})

	advisor := pkgmgr.Advisor{Env: a.env}
	if pm := cfg.Remediation.PackageManager; pm != config.PackageManagerAuto && pm != "" {
		advisor.Override = pkgmgr.Kind(pm)
	}

	logger.Debug("services ready",
		"runtime", rt.Name(), "loader", cfg.Loader, "installer", installer.Binary(), "work_dir", workDir)

	return &services{
		cfg:       cfg,
		verbose:   verbose,
		logger:    logger,
		runtime:   rt,
		installer: installer,
		loader:    ld,
		advisor:   advisor,
		resolver: resolve.New(resolve.Options{
			Loader:    ld,
			Installer: installer,
			Advisor:   advisor,
			Logger:    logger,
		}),
	}, nil
}

// glamourStyle maps the configured color scheme to a glamour style name.
func glamourStyle(cfg *config.Config) string {
	if cfg != nil && cfg.UI.ColorScheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}

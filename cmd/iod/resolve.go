// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/iod/internal/loader"
)

// newResolveCommand creates the `iod resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <package>...",
		Short: "Load packages, installing missing ones temporarily",
		Long: `Load one or more packages. Packages found in the local node_modules tree
are loaded from there; the rest are installed together in a single npx run
and loaded from the npx cache.

A package is written as name[@version][/subpath], for example:
  left-pad
  left-pad@1.3.0
  @babel/core@^7/lib/index.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, app, args, outputFormat(output), serviceOptions{})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "output format (table, json, toml)")

	return cmd
}

// newWhichCommand creates the `iod which` command.
func newWhichCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "which <package>...",
		Short: "Print the file each package resolves to without running it",
		Long: `Resolve packages like 'iod resolve' but stop at the entry file: the
package code is never executed. Missing packages are still installed
temporarily so their location in the npx cache can be reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return runWhich(cmd, app, args)
			}
			return runResolve(cmd, app, args, outputFormat(output), serviceOptions{ResolveOnly: true})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "print full module records (table, json, toml) instead of entry paths")

	return cmd
}

func runResolve(cmd *cobra.Command, app *App, args []string, format outputFormat, opts serviceOptions) error {
	if ok, errs := format.IsValid(); !ok {
		return errs[0]
	}

	mods, err := resolveModules(cmd, app, args, opts)
	if err != nil {
		return err
	}
	return writeModules(app.stdout, format, mods)
}

func runWhich(cmd *cobra.Command, app *App, args []string) error {
	mods, err := resolveModules(cmd, app, args, serviceOptions{ResolveOnly: true})
	if err != nil {
		return err
	}
	for _, m := range mods {
		fmt.Fprintln(app.stdout, m.Entry)
	}
	return nil
}

// resolveModules runs one resolution batch. Failures are rendered to stderr
// with their issue help page and come back as an ExitError.
func resolveModules(cmd *cobra.Command, app *App, args []string, opts serviceOptions) ([]*loader.Module, error) {
	svc, err := app.buildServices(cmd.Context(), opts)
	if err != nil {
		return nil, app.exitWithServiceError(cmd, err, nil)
	}

	mods, err := svc.resolver.ResolveAll(cmd.Context(), args)
	if err != nil {
		issueID, styled := classifyResolveError(err, svc.verbose)
		return nil, app.exitWithServiceError(cmd, newServiceError(err, issueID, styled), svc)
	}
	return mods, nil
}

// exitWithServiceError renders err when it is a ServiceError and converts it
// into an ExitError so the process exits non-zero without a usage dump.
func (a *App) exitWithServiceError(cmd *cobra.Command, err error, svc *services) error {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}

	style := "dark"
	if svc != nil {
		style = glamourStyle(svc.cfg)
	}
	renderServiceError(a.stderr, svcErr, style)

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: 1, Err: err}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/iod/internal/config"
	"github.com/invowk/iod/internal/pkgmgr"
	"github.com/invowk/iod/internal/runtime"
)

type (
	// doctorCheck is one line of the doctor report.
	doctorCheck struct {
		Label  string
		Value  string
		Failed bool
	}

	doctorReport struct {
		Checks []doctorCheck
	}
)

// newDoctorCommand creates the `iod doctor` command.
func newDoctorCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that on-demand installs can work on this system",
		Long: `Run the same npx version check a resolution performs and report the
runtime, loader and package manager iod would use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.buildServices(cmd.Context(), serviceOptions{})
			if err != nil {
				return app.exitWithServiceError(cmd, err, nil)
			}

			report := runDoctor(cmd.Context(), app, svc)
			report.write(app.stdout)
			if report.failed() {
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}

func runDoctor(ctx context.Context, app *App, svc *services) doctorReport {
	var report doctorReport

	cfgPath, err := app.Config.Path(ctx, config.LoadOptions{ConfigFilePath: rootFlagsFromContext(ctx).configPath})
	switch {
	case err != nil:
		report.add("Config file", err.Error(), true)
	case cfgPath == "":
		report.add("Config file", "(using defaults)", false)
	default:
		report.add("Config file", cfgPath, false)
	}

	report.add("Runtime", svc.runtime.Name(), false)
	report.add("Loader", string(svc.cfg.Loader), false)

	if version, err := svc.installer.CheckVersion(ctx); err != nil {
		report.add("Installer", err.Error(), true)
	} else {
		report.add("Installer", fmt.Sprintf("%s %s (requires %d+)", svc.installer.Binary(), version, svc.cfg.Installer.MinMajor), false)
	}

	nodeCmd := svc.cfg.Installer.NodeBinary + " --version"
	if res := svc.runtime.Run(ctx, runtime.Command{Line: nodeCmd, Shell: true}); res.Failed() {
		report.add("Node", fmt.Sprintf("'%s' failed: %v", nodeCmd, res.Err()), true)
	} else {
		report.add("Node", strings.TrimSpace(res.Output), false)
	}

	if svc.advisor.Override != "" {
		report.add("Package manager", fmt.Sprintf("%s (from config)", svc.advisor.Override), false)
	} else {
		d := pkgmgr.Detect(svc.advisor.Env)
		report.add("Package manager", fmt.Sprintf("%s (%s)", d.Kind, d.Signal), false)
	}

	return report
}

func (r *doctorReport) add(label, value string, failed bool) {
	r.Checks = append(r.Checks, doctorCheck{Label: label, Value: value, Failed: failed})
}

func (r doctorReport) failed() bool {
	for _, c := range r.Checks {
		if c.Failed {
			return true
		}
	}
	return false
}

func (r doctorReport) write(w io.Writer) {
	fmt.Fprintln(w, TitleStyle.Render("iod doctor"))
	fmt.Fprintln(w)
	for _, c := range r.Checks {
		mark := SuccessStyle.Render("✓")
		if c.Failed {
			mark = ErrorStyle.Render("✗")
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark, CmdStyle.Render(c.Label), c.Value)
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/invowk/iod/internal/config"
)

// newConfigCommand creates the `iod config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage iod configuration",
		Long: `Manage iod configuration.

Configuration is stored in:
  - Linux: ~/.config/iod/config.cue
  - macOS: ~/Library/Application Support/iod/config.cue
  - Windows: %APPDATA%\iod\config.cue

Every key can be overridden with an IOD_ environment variable,
e.g. IOD_INSTALLER_BINARY or IOD_REMEDIATION_PACKAGE_MANAGER.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app.stdout)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app.stdout)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.exitWithServiceError(cmd, err, nil)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.exitWithServiceError(cmd, err, nil)
	}

	w := app.stdout
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), configFileLabel(ctx, app))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s:\n", keyStyle.Render("installer"))
	fmt.Fprintf(w, "  binary: %s\n", valueStyle.Render(cfg.Installer.Binary))
	fmt.Fprintf(w, "  node_binary: %s\n", valueStyle.Render(cfg.Installer.NodeBinary))
	fmt.Fprintf(w, "  min_major: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Installer.MinMajor)))
	if cfg.Installer.WorkDir != "" {
		fmt.Fprintf(w, "  work_dir: %s\n", valueStyle.Render(cfg.Installer.WorkDir))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("runtime"), valueStyle.Render(string(cfg.Runtime)))
	if cfg.Shell != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("shell"), valueStyle.Render(cfg.Shell))
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("loader"), valueStyle.Render(string(cfg.Loader)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("remediation"))
	fmt.Fprintf(w, "  package_manager: %s\n", valueStyle.Render(string(cfg.Remediation.PackageManager)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

// configFileLabel names the file the configuration came from.
func configFileLabel(ctx context.Context, app *App) string {
	path, err := app.Config.Path(ctx, config.LoadOptions{ConfigFilePath: rootFlagsFromContext(ctx).configPath})
	if err != nil || path == "" {
		return SubtitleStyle.Render("(using defaults)")
	}
	return path
}

func initConfig(w io.Writer) error {
	path, created, err := config.CreateDefaultConfig("")
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	if !created {
		fmt.Fprintf(w, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(w io.Writer) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(w, "Config file: %s\n", cfgPath)
	return nil
}

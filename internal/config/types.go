// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RuntimeNative runs installer commands in the host system shell.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs installer commands in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// LoaderNode loads packages by running node.
	LoaderNode LoaderMode = "node"
	// LoaderFS resolves packages by walking node_modules.
	LoaderFS LoaderMode = "fs"

	// PackageManagerAuto detects the package manager from the environment.
	PackageManagerAuto PackageManager = "auto"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidConfigRuntimeMode is returned when a config RuntimeMode value is not recognized.
	ErrInvalidConfigRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidLoaderMode is returned when a LoaderMode value is not recognized.
	ErrInvalidLoaderMode = errors.New("invalid loader mode")
	// ErrInvalidPackageManager is returned when a PackageManager value is not recognized.
	ErrInvalidPackageManager = errors.New("invalid package manager")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidInstallerConfig is the sentinel error wrapped by InvalidInstallerConfigError.
	ErrInvalidInstallerConfig = errors.New("invalid installer config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects the runtime that executes installer commands.
	RuntimeMode string

	// InvalidConfigRuntimeModeError is returned when a config RuntimeMode value is not recognized.
	// It wraps ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
	InvalidConfigRuntimeModeError struct {
		Value RuntimeMode
	}

	// LoaderMode selects the package loader backend.
	LoaderMode string

	// InvalidLoaderModeError is returned when a LoaderMode value is not recognized.
	// It wraps ErrInvalidLoaderMode for errors.Is() compatibility.
	InvalidLoaderModeError struct {
		Value LoaderMode
	}

	// PackageManager is the manager named in remediation text, or "auto".
	PackageManager string

	// InvalidPackageManagerError is returned when a PackageManager value is not recognized.
	// It wraps ErrInvalidPackageManager for errors.Is() compatibility.
	InvalidPackageManagerError struct {
		Value PackageManager
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidInstallerConfigError collects field-level installer errors.
	// It wraps ErrInvalidInstallerConfig for errors.Is() compatibility.
	InvalidInstallerConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Installer configures the npx invocation
		Installer InstallerConfig `json:"installer" toml:"installer" mapstructure:"installer"`
		// Runtime selects how installer commands are executed
		Runtime RuntimeMode `json:"runtime" toml:"runtime" mapstructure:"runtime"`
		// Shell overrides the shell used by the native runtime
		Shell string `json:"shell,omitempty" toml:"shell,omitempty" mapstructure:"shell"`
		// Loader selects the package loader backend
		Loader LoaderMode `json:"loader" toml:"loader" mapstructure:"loader"`
		// Remediation configures the install hints printed on failure
		Remediation RemediationConfig `json:"remediation" toml:"remediation" mapstructure:"remediation"`
		// UI configures the user interface
		UI UIConfig `json:"ui" toml:"ui" mapstructure:"ui"`
	}

	// InstallerConfig configures the installer.
	InstallerConfig struct {
		// Binary is the installer executable (default: npx)
		Binary string `json:"binary" toml:"binary" mapstructure:"binary"`
		// NodeBinary is the node executable (default: node)
		NodeBinary string `json:"node_binary" toml:"node_binary" mapstructure:"node_binary"`
		// MinMajor is the oldest accepted npm major version (default: 8)
		MinMajor int `json:"min_major" toml:"min_major" mapstructure:"min_major"`
		// WorkDir is where installer and loader commands run; empty means the current directory
		WorkDir string `json:"work_dir,omitempty" toml:"work_dir,omitempty" mapstructure:"work_dir"`
	}

	// RemediationConfig configures remediation hints.
	RemediationConfig struct {
		// PackageManager forces npm, pnpm or yarn; auto detects it
		PackageManager PackageManager `json:"package_manager" toml:"package_manager" mapstructure:"package_manager"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" toml:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface.
func (e *InvalidConfigRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
func (e *InvalidConfigRuntimeModeError) Unwrap() error { return ErrInvalidConfigRuntimeMode }

// IsValid returns whether the RuntimeMode is one of the defined runtime modes,
// and a list of validation errors if it is not.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidConfigRuntimeModeError{Value: m}}
	}
}

// Error implements the error interface.
func (e *InvalidLoaderModeError) Error() string {
	return fmt.Sprintf("invalid loader %q (valid: node, fs)", e.Value)
}

// Unwrap returns ErrInvalidLoaderMode for errors.Is() compatibility.
func (e *InvalidLoaderModeError) Unwrap() error { return ErrInvalidLoaderMode }

// IsValid returns whether the LoaderMode is known,
// and a list of validation errors if it is not.
func (m LoaderMode) IsValid() (bool, []error) {
	switch m {
	case LoaderNode, LoaderFS:
		return true, nil
	default:
		return false, []error{&InvalidLoaderModeError{Value: m}}
	}
}

// Error implements the error interface.
func (e *InvalidPackageManagerError) Error() string {
	return fmt.Sprintf("invalid package manager %q (valid: auto, npm, pnpm, yarn)", e.Value)
}

// Unwrap returns ErrInvalidPackageManager for errors.Is() compatibility.
func (e *InvalidPackageManagerError) Unwrap() error { return ErrInvalidPackageManager }

// IsValid returns whether the PackageManager is "auto" or a known manager,
// and a list of validation errors if it is not.
func (p PackageManager) IsValid() (bool, []error) {
	switch p {
	case PackageManagerAuto, "npm", "pnpm", "yarn":
		return true, nil
	default:
		return false, []error{&InvalidPackageManagerError{Value: p}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// IsValid checks that the binaries are single words and MinMajor is positive.
func (c InstallerConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Binary) == "" || strings.ContainsAny(c.Binary, " \t") {
		errs = append(errs, fmt.Errorf("installer.binary %q must be a single non-empty word", c.Binary))
	}
	if strings.TrimSpace(c.NodeBinary) == "" || strings.ContainsAny(c.NodeBinary, " \t") {
		errs = append(errs, fmt.Errorf("installer.node_binary %q must be a single non-empty word", c.NodeBinary))
	}
	if c.MinMajor < 1 {
		errs = append(errs, fmt.Errorf("installer.min_major %d must be at least 1", c.MinMajor))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidInstallerConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidInstallerConfigError) Error() string {
	return fmt.Sprintf("invalid installer config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidInstallerConfig and the field errors for errors.Is() compatibility.
func (e *InvalidInstallerConfigError) Unwrap() []error {
	return append([]error{ErrInvalidInstallerConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Installer.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Runtime.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Loader.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Remediation.PackageManager.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Installer: InstallerConfig{
			Binary:     "npx",
			NodeBinary: "node",
			MinMajor:   8,
		},
		Runtime: RuntimeNative,
		Loader:  LoaderNode,
		Remediation: RemediationConfig{
			PackageManager: PackageManagerAuto,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package config handles iod configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/iod/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/iod/config.cue on macOS, %APPDATA%\iod\config.cue
// on Windows), or from config.cue in the working directory. Every key can be
// overridden through an IOD_ environment variable, e.g. IOD_INSTALLER_BINARY.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before
// they are merged over the defaults.
package config

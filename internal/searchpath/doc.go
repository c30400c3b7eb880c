// SPDX-License-Identifier: MPL-2.0

// Package searchpath recovers the ephemeral install directory from the PATH
// that npx hands to the command it runs.
package searchpath

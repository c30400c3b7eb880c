// SPDX-License-Identifier: MPL-2.0

// Package resolve loads packages on demand. Every requested package is first
// probed in the local module graph; the ones that are missing are installed
// together with one npx invocation into a throwaway directory, which is then
// recovered from the installer's PATH and used to load them.
//
// A batch either loads every package or fails as a whole with a
// *ResolutionError that names the missing packages, carries the root cause
// and suggests the command that installs them permanently.
package resolve

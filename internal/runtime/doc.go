// SPDX-License-Identifier: MPL-2.0

// Package runtime runs the external commands iod depends on: the installer
// version probe, the batched ephemeral install, and node-based module loading.
//
// Two runtime implementations are available:
//   - native: executes commands with os/exec, through the host shell when asked to
//   - virtual: interprets commands with an embedded shell (mvdan/sh) and execs
//     the programs it names directly
//
// Runtimes never return Go errors for non-zero exits; the outcome is reported
// in a Result so callers can decide which failures matter.
package runtime

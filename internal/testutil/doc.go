// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests: Must* wrappers that fail
// the test on error, environment and home directory overrides, a container
// concurrency limit, and FakeRuntime, a scripted command runtime.
package testutil

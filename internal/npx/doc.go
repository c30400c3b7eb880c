// SPDX-License-Identifier: MPL-2.0

// Package npx drives the npx installer: a version gate followed by one
// batched ephemeral install per resolution batch.
//
// npx does not report where it unpacked packages. The install command
// therefore runs node in the same invocation to print PATH, which npx has
// prefixed with the ephemeral node_modules/.bin directory. Recovering the
// directory from that output is the job of package searchpath.
package npx

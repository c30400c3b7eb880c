// SPDX-License-Identifier: MPL-2.0

// Package loader loads Node packages, either from the caller's own module
// graph (LoadByName) or from an arbitrary node_modules directory
// (LoadFromDirectory), and describes the result as a Module.
//
// Two backends exist. NodeLoader asks the node binary to resolve and import
// the package, so resolution follows Node exactly. FSLoader walks the
// node_modules tree itself and never executes package code.
package loader

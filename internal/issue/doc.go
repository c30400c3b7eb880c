// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggested fixes. The issue catalog holds one Markdown help page per failure
// kind, rendered in the terminal with glamour.
package issue

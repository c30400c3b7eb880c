// SPDX-License-Identifier: MPL-2.0

// Package pkgmgr guesses which package manager (npm, pnpm or yarn) the host
// project uses. The guess only ever shapes remediation text such as
// "pnpm add -D left-pad@latest"; it never changes how packages are resolved.
package pkgmgr

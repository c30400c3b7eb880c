// SPDX-License-Identifier: MPL-2.0

// Package npmspec parses npm package specifiers of the form
// ["@"scope"/"]name["@"version]["/"subpath] into structured fields.
//
// The version part is treated as an opaque string: ranges ("^1.2.0", ">1.0.0")
// and dist-tags ("beta", "next") are accepted as-is and only ever forwarded to
// the installer. The import path handed to module loaders never carries it.
package npmspec

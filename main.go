// SPDX-License-Identifier: MPL-2.0

// Command iod loads npm packages, installing missing ones on demand.
package main

import cmd "github.com/invowk/iod/cmd/iod"

func main() {
	cmd.Execute()
}

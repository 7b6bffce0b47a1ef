// SPDX-License-Identifier: MPL-2.0

// Command temploy generates projects from templates and deploys them.
package main

import "github.com/temploy/temploy/cmd/temploy"

func main() {
	cmd.Execute()
}

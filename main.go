// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies

// Package main is the entry point for the maxifier CLI.
package main

import "maxifier.safepic.fr/cmd"

func main() {
	cmd.Execute()
}

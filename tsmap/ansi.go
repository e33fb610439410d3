// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Colors are dropped when color.NoColor is set, the default off a terminal.
var (
	cRed = color.New(color.FgRed).SprintFunc()
	cGrn = color.New(color.FgGreen).SprintFunc()
	cCyn = color.New(color.FgCyan).SprintFunc()
)

// Printer writes the human facing progress lines of a run.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Written reports one extracted file.
func (p *Printer) Written(dest string) {
	fmt.Fprintf(p.w, "%s: %s\n", cGrn("Written"), dest)
}

// Summary prints the final count.
func (p *Printer) Summary(written int, outDir string) {
	fmt.Fprintf(p.w, "\n%s: %d written into %s\n", cCyn("Summary"), written, outDir)
}

// Error prints err the way every failing run ends.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.w, "%s %v\n", cRed("Error:"), err)
}

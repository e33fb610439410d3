// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrinter(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Written("out/a.js")
	p.Summary(1, "out")
	p.Error(errors.New("boom"))

	assert.Equal(t, "Written: out/a.js\n\nSummary: 1 written into out\nError: boom\n", buf.String())
}

// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"bytes"
	"fmt"
	"strings"
)

// EOL modes accepted by NewTransform.
const (
	EOLKeep = ""
	EOLUnix = "unix"
	EOLDos  = "dos"
)

// Transform rewrites source content before it is written. The zero value
// writes content verbatim.
type Transform struct {
	Beautify bool
	EOL      string
}

// NewTransform validates the EOL mode.
func NewTransform(beautify bool, eol string) (Transform, error) {
	mode := strings.ToLower(strings.TrimSpace(eol))
	switch mode {
	case EOLKeep, EOLUnix:
	case EOLDos, "windows":
		mode = EOLDos
	default:
		return Transform{}, fmt.Errorf("unknown eol mode %q (want unix or dos)", eol)
	}
	return Transform{Beautify: beautify, EOL: mode}, nil
}

// Apply runs the enabled transforms on s.
func (t Transform) Apply(s string) string {
	if t.Beautify {
		s = beautifyBasic(s)
	}
	return normalizeEOL(s, t.EOL)
}

// breaks after ; { } and squeezes blank lines
func beautifyBasic(s string) string {
	r := strings.NewReplacer(";", ";\n", "{", "{\n", "}", "}\n")
	s = r.Replace(s)

	var buf bytes.Buffer
	prevBlank := false
	for _, ln := range strings.Split(s, "\n") {
		line := strings.TrimRight(ln, " \t")
		if line == "" {
			if prevBlank {
				continue
			}
			prevBlank = true
		} else {
			prevBlank = false
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.String()
}

func normalizeEOL(s, mode string) string {
	switch mode {
	case EOLUnix:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	case EOLDos:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	return s
}

// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransform(t *testing.T) {
	tests := []struct {
		eol     string
		want    string
		wantErr bool
	}{
		{"", EOLKeep, false},
		{"unix", EOLUnix, false},
		{"DOS", EOLDos, false},
		{"windows", EOLDos, false},
		{"mac", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.eol, func(t *testing.T) {
			got, err := NewTransform(false, tt.eol)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.EOL)
		})
	}
}

func TestTransform_Apply(t *testing.T) {
	assert.Equal(t, "a\r\nb\r", Transform{}.Apply("a\r\nb\r"), "zero value keeps content verbatim")
	assert.Equal(t, "a\nb\nc", Transform{EOL: EOLUnix}.Apply("a\r\nb\rc"))
	assert.Equal(t, "a\r\nb\r\nc", Transform{EOL: EOLDos}.Apply("a\nb\r\nc"))
	assert.Equal(t, "var a=1;\nif(a){\nb();\n}\n\n", Transform{Beautify: true}.Apply("var a=1;if(a){b();}"))
}

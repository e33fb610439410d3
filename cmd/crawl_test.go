// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maxifier.safepic.fr/tsmap"
)

func TestCrawlCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`<html><script src="/static/app.js"></script><script src="/static/none.js"></script></html>`))
		case "/static/app.js":
			_, _ = w.Write([]byte("x;\n//# sourceMappingURL=app.js.map"))
		case "/static/app.js.map":
			_, _ = w.Write([]byte(testMap))
		case "/static/none.js":
			_, _ = w.Write([]byte("y;"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "out")
	code, stdout, stderr := runCLI(t, nil, "crawl", "--url", srv.URL+"/", "-o", out)
	require.Equal(t, exitSuccess, code, stderr)

	assert.Equal(t, "let a = 1;", readOut(t, filepath.Join(out, "127.0.0.1", "static", "src", "app.ts")))
	assert.Contains(t, stdout, "Sourcemap")
	assert.Contains(t, stdout, srv.URL+"/static/app.js.map")
	assert.Contains(t, stdout, "no sourcemap")
	assert.Contains(t, stdout, "2 scripts")
}

func TestCrawlCmd_MissingURL(t *testing.T) {
	code, _, stderr := runCLI(t, nil, "crawl")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "missing page URL")
	assert.Contains(t, stderr, "--url")
}

func TestRenderCrawlTable(t *testing.T) {
	var buf bytes.Buffer
	renderCrawlTable(&buf, []tsmap.ScriptResult{
		{ScriptURL: "https://site.test/a.js", Origin: tsmap.OriginInline, Written: 3},
		{ScriptURL: "https://site.test/b.js", Err: &tsmap.FetchError{URL: "https://site.test/b.js", Status: 500}},
	})

	out := buf.String()
	assert.Contains(t, out, "(inline)")
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "2 scripts")
}

func TestCrawlStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&tsmap.NotFoundError{URL: "u"}, "no sourcemap"},
		{&tsmap.FetchError{URL: "u", Status: 404}, "fetch failed"},
		{&tsmap.DecodeError{What: "x", Err: errors.New("bad")}, "decode error"},
		{&tsmap.ParseError{Err: errors.New("bad")}, "invalid JSON"},
		{&tsmap.SchemaError{Key: "sourcesContent"}, "missing sourcesContent"},
		{&tsmap.OutputDirError{Path: "out", Err: errors.New("full")}, "write failed"},
		{errors.New("other"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, crawlStatus(tt.err))
		})
	}
}

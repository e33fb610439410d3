// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestPrepareOutputDir(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, PrepareOutputDir(fs, "out/nested"))

		ok, err := afero.DirExists(fs, "out/nested")
		require.NoError(t, err)
		assert.True(t, ok)

		entries, err := afero.ReadDir(fs, "out/nested")
		require.NoError(t, err)
		assert.Empty(t, entries, "write probe must be removed")
	})

	t.Run("read only filesystem", func(t *testing.T) {
		base := afero.NewMemMapFs()
		require.NoError(t, base.MkdirAll("out", 0o755))

		err := PrepareOutputDir(afero.NewReadOnlyFs(base), "out")
		var outErr *OutputDirError
		require.ErrorAs(t, err, &outErr)
		assert.Equal(t, "out", outErr.Path)
	})

	t.Run("unwritable directory on disk", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced here")
		}
		dir := filepath.Join(t.TempDir(), "locked")
		require.NoError(t, os.Mkdir(dir, 0o555))

		err := PrepareOutputDir(afero.NewOsFs(), dir)
		var outErr *OutputDirError
		assert.ErrorAs(t, err, &outErr)
	})
}

func TestMaterializer_Write(t *testing.T) {
	t.Run("writes every target with parents", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		m := &Materializer{Fs: fs, Root: "out"}
		targets := []Target{
			{Source: "src/a.js", Path: filepath.Join("src", "a.js"), Content: "a"},
			{Source: "../../etc/passwd", Path: filepath.Join("etc", "passwd"), Content: "root"},
			{Source: "empty.js", Path: "empty.js"},
		}

		var seen []string
		m.OnWrite = func(_ Target, dest string) { seen = append(seen, dest) }

		written, err := m.Write(targets)
		require.NoError(t, err)
		assert.Equal(t, targets, written)
		assert.Equal(t, []string{
			filepath.Join("out", "src", "a.js"),
			filepath.Join("out", "etc", "passwd"),
			filepath.Join("out", "empty.js"),
		}, seen)

		assert.Equal(t, "a", readFile(t, fs, filepath.Join("out", "src", "a.js")))
		assert.Equal(t, "root", readFile(t, fs, filepath.Join("out", "etc", "passwd")))
		assert.Equal(t, "", readFile(t, fs, filepath.Join("out", "empty.js")))
	})

	t.Run("duplicates keep the last write", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		m := &Materializer{Fs: fs, Root: "out"}
		_, err := m.Write([]Target{
			{Source: "a.js", Path: "a.js", Content: "first"},
			{Source: "./a.js", Path: "a.js", Content: "second"},
		})
		require.NoError(t, err)
		assert.Equal(t, "second", readFile(t, fs, filepath.Join("out", "a.js")))
	})

	t.Run("overwrites existing files", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, filepath.Join("out", "a.js"), []byte("old and longer"), 0o644))

		_, err := (&Materializer{Fs: fs, Root: "out"}).Write([]Target{{Path: "a.js", Content: "new"}})
		require.NoError(t, err)
		assert.Equal(t, "new", readFile(t, fs, filepath.Join("out", "a.js")))
	})

	t.Run("applies the transform", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		m := &Materializer{Fs: fs, Root: "out", Transform: Transform{EOL: EOLUnix}}
		_, err := m.Write([]Target{{Path: "a.js", Content: "a\r\nb"}})
		require.NoError(t, err)
		assert.Equal(t, "a\nb", readFile(t, fs, filepath.Join("out", "a.js")))
	})

	t.Run("refuses a path outside the root", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		written, err := (&Materializer{Fs: fs, Root: "out"}).Write([]Target{
			{Path: "ok.js", Content: "ok"},
			{Path: filepath.Join("..", "evil.js"), Content: "evil"},
		})
		var outErr *OutputDirError
		require.ErrorAs(t, err, &outErr)
		assert.Len(t, written, 1)

		exists, _ := afero.Exists(fs, "evil.js")
		assert.False(t, exists)
	})

	t.Run("file where a directory is needed", func(t *testing.T) {
		fs := afero.NewOsFs()
		root := t.TempDir()
		written, err := (&Materializer{Fs: fs, Root: root}).Write([]Target{
			{Path: "lib", Content: "file"},
			{Path: filepath.Join("lib", "a.js"), Content: "a"},
		})
		var outErr *OutputDirError
		require.ErrorAs(t, err, &outErr)
		assert.Len(t, written, 1)
	})
}

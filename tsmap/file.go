// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	writeProbePattern = ".maxifier-probe-*"
)

// PrepareOutputDir creates dir if needed and checks that a file can be
// created in it.
func PrepareOutputDir(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, dirPerm); err != nil {
		return &OutputDirError{Path: dir, Err: err}
	}
	probe, err := afero.TempFile(fs, dir, writeProbePattern)
	if err != nil {
		return &OutputDirError{Path: dir, Err: err}
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		return &OutputDirError{Path: dir, Err: err}
	}
	if err := fs.Remove(name); err != nil {
		return &OutputDirError{Path: dir, Err: err}
	}
	return nil
}

// Materializer writes targets under Root. Existing files are overwritten and
// nothing is rolled back when a write fails halfway.
type Materializer struct {
	Fs        afero.Fs
	Root      string
	Transform Transform
	// OnWrite, if set, is called after each file is written with its full path.
	OnWrite func(t Target, dest string)
}

// Write writes every target in order and returns the ones written. A later
// target with the same path replaces an earlier one.
func (m *Materializer) Write(targets []Target) ([]Target, error) {
	written := make([]Target, 0, len(targets))
	for _, t := range targets {
		dest, err := SafeJoin(m.Root, t.Path)
		if err != nil {
			return written, err
		}

		slog.Debug("Generating", "path", dest, "source", t.Source)
		if err := m.Fs.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
			return written, &OutputDirError{Path: filepath.Dir(dest), Err: err}
		}
		if err := afero.WriteFile(m.Fs, dest, []byte(m.Transform.Apply(t.Content)), filePerm); err != nil {
			return written, &OutputDirError{Path: dest, Err: err}
		}

		written = append(written, t)
		if m.OnWrite != nil {
			m.OnWrite(t, dest)
		}
	}
	return written, nil
}

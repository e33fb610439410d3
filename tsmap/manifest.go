// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Manifest records what a run extracted.
type Manifest struct {
	Origin Origin          `yaml:"origin"`
	MapURL string          `yaml:"map_url,omitempty"`
	OutDir string          `yaml:"out_dir"`
	Files  []ManifestEntry `yaml:"files"`
}

// ManifestEntry is one written file.
type ManifestEntry struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	Bytes  int    `yaml:"bytes"`
}

// NewManifest builds the manifest of a finished run.
func NewManifest(res *Result) Manifest {
	m := Manifest{
		Origin: res.Origin,
		MapURL: res.MapURL,
		OutDir: res.OutDir,
		Files:  make([]ManifestEntry, 0, len(res.Written)),
	}
	for _, t := range res.Written {
		m.Files = append(m.Files, ManifestEntry{Source: t.Source, Path: t.Path, Bytes: len(t.Content)})
	}
	return m
}

// WriteManifest stores m as YAML at path.
func WriteManifest(fs afero.Fs, path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, data, filePerm); err != nil {
		return &OutputDirError{Path: path, Err: err}
	}
	return nil
}

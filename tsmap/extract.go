// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultOutDir is used when Config.OutDir is empty.
const DefaultOutDir = "./output"

const defaultMapName = "sourcemap.json"

// Config is everything one extraction run needs.
type Config struct {
	// SourceMap is read in local mode, i.e. when AutoMap is empty.
	SourceMap     io.Reader
	SourceMapName string

	// AutoMap is the URL of a JavaScript bundle whose sourcemap is discovered.
	AutoMap string
	// Probe also tries "<bundle>.map" when the bundle references no map.
	Probe bool

	OutDir        string
	Transform     Transform
	UseSourceRoot bool
	// SaveMap stores the raw sourcemap in OutDir before extraction.
	SaveMap bool

	// Fetcher defaults to an HTTPFetcher with default options.
	Fetcher Fetcher
	// Fs defaults to the OS filesystem.
	Fs afero.Fs

	OnWrite func(t Target, dest string)
}

// Result describes a finished run. On a write failure Written holds what
// made it to disk.
type Result struct {
	Origin  Origin
	MapURL  string
	OutDir  string
	Written []Target
}

// Run locates the sourcemap, validates it and writes every embedded source
// under the output directory.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.AutoMap == "" && cfg.SourceMap == nil {
		return nil, &UsageError{}
	}

	located, err := locate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	doc := located.Document
	slog.Debug("Decoded sourcemap", "origin", located.Origin, "map_url", located.MapURL, "document", doc)

	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = DefaultOutDir
	}

	targets := doc.Targets(cfg.UseSourceRoot)
	slog.Debug("Extracting source files", "out_dir", outDir, "count", len(targets))
	if err := PrepareOutputDir(fs, outDir); err != nil {
		return nil, err
	}

	res := &Result{Origin: located.Origin, MapURL: located.MapURL, OutDir: outDir}
	if cfg.SaveMap {
		dest := filepath.Join(outDir, mapFileName(located.MapURL))
		if err := afero.WriteFile(fs, dest, doc.Raw, filePerm); err != nil {
			return res, &OutputDirError{Path: dest, Err: err}
		}
		slog.Debug("Saved sourcemap", "path", dest)
	}

	m := &Materializer{Fs: fs, Root: outDir, Transform: cfg.Transform, OnWrite: cfg.OnWrite}
	res.Written, err = m.Write(targets)
	return res, err
}

func locate(ctx context.Context, cfg Config) (*Located, error) {
	if cfg.AutoMap == "" {
		name := cfg.SourceMapName
		if name == "" {
			name = StdinName
		}
		return (&Locator{}).FromReader(cfg.SourceMap, name)
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		f, err := NewHTTPFetcher(HTTPOptions{})
		if err != nil {
			return nil, err
		}
		fetcher = f
	}
	loc := &Locator{Fetcher: fetcher, Probe: cfg.Probe}
	return loc.FromBundle(ctx, cfg.AutoMap)
}

// base name of the map URL, sanitized like any source path
func mapFileName(mapURL string) string {
	if mapURL == "" {
		return defaultMapName
	}
	u, err := url.Parse(mapURL)
	if err != nil {
		return defaultMapName
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return defaultMapName
	}
	return sanitizeSegment(name)
}

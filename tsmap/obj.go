// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"encoding/json"
	"log/slog"
)

const (
	keySources        = "sources"
	keySourcesContent = "sourcesContent"
)

// Document is a decoded sourcemap. Only the fields needed for extraction are
// kept; mappings and names are ignored.
type Document struct {
	Version        int
	File           string
	SourceRoot     string
	Sources        []string
	SourcesContent []*string

	// Raw holds the bytes the document was decoded from.
	Raw []byte
}

// Target is one source file to write: the logical path from the map, its
// normalized destination relative to the output root, and its content.
type Target struct {
	Source  string
	Path    string
	Content string
}

// Parse decodes data as a sourcemap and checks that both the sources and
// sourcesContent keys are present. Unknown keys are ignored.
func Parse(data []byte) (*Document, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &ParseError{Err: err}
	}
	if obj == nil {
		return nil, &ParseError{Err: errNullDocument}
	}

	rawSources, ok := obj[keySources]
	if !ok {
		return nil, &SchemaError{Key: keySources}
	}
	rawContent, ok := obj[keySourcesContent]
	if !ok {
		return nil, &SchemaError{Key: keySourcesContent}
	}

	doc := &Document{Raw: data}
	if err := json.Unmarshal(rawSources, &doc.Sources); err != nil {
		return nil, &SchemaError{Key: keySources, Err: err}
	}
	if err := json.Unmarshal(rawContent, &doc.SourcesContent); err != nil {
		return nil, &SchemaError{Key: keySourcesContent, Err: err}
	}

	// Metadata is best effort; a malformed value is not worth failing on.
	if v, ok := obj["version"]; ok {
		_ = json.Unmarshal(v, &doc.Version)
	}
	if v, ok := obj["file"]; ok {
		_ = json.Unmarshal(v, &doc.File)
	}
	if v, ok := obj["sourceRoot"]; ok {
		_ = json.Unmarshal(v, &doc.SourceRoot)
	}
	return doc, nil
}

// Targets pairs sources with their contents by position, stopping at the
// shorter of the two lists. Destination paths are normalized; when
// useSourceRoot is set the document's sourceRoot is prefixed first.
func (d *Document) Targets(useSourceRoot bool) []Target {
	n := min(len(d.Sources), len(d.SourcesContent))
	if len(d.Sources) != len(d.SourcesContent) {
		slog.Warn("sources and sourcesContent differ in length, extra entries ignored",
			"sources", len(d.Sources), "sourcesContent", len(d.SourcesContent))
	}

	targets := make([]Target, 0, n)
	for i := 0; i < n; i++ {
		src := d.Sources[i]
		logical := src
		if useSourceRoot {
			logical = joinMaybe(d.SourceRoot, src)
		}
		content := ""
		if c := d.SourcesContent[i]; c != nil {
			content = *c
		}
		targets = append(targets, Target{
			Source:  src,
			Path:    NormalizeSourcePath(logical),
			Content: content,
		})
	}
	return targets
}

// LogValue lets the document be passed straight to slog in verbose mode.
func (d *Document) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("version", d.Version),
		slog.String("file", d.File),
		slog.String("sourceRoot", d.SourceRoot),
		slog.Int("sources", len(d.Sources)),
		slog.Int("sourcesContent", len(d.SourcesContent)),
	)
}

// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// PlaceholderName replaces a source path, or a path segment, that is empty or
// collapses to the output root.
const PlaceholderName = "unnamed"

var errEscapesRoot = errors.New("path escapes output directory")

var uriPrefixes = []string{"webpack:///", "webpack://", "file:///", "file://", "vscode://"}

var weirdChars = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"|", "_",
	"?", "_",
	"*", "_",
	"\x00", "_",
)

// NormalizeSourcePath turns a logical source path from a sourcemap into a
// relative, native path that cannot leave the output root.
//
// The path is cleaned as if it were rooted at a synthetic "/", so leading
// slashes and any number of ".." segments collapse onto that root. Backslashes
// count as separators, so a map behaves the same on every host.
func NormalizeSourcePath(logical string) string {
	p := strings.TrimSpace(logical)
	for _, pref := range uriPrefixes {
		if strings.HasPrefix(p, pref) {
			p = strings.TrimPrefix(p, pref)
			break
		}
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if hasDriveLetter(p) {
		p = p[2:]
	}

	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return PlaceholderName
	}

	parts := strings.Split(p, "/")
	for i, seg := range parts {
		parts[i] = sanitizeSegment(seg)
	}
	return filepath.Join(parts...)
}

// SafeJoin joins rel under root and refuses any result that is not strictly
// inside root.
func SafeJoin(root, rel string) (string, error) {
	target := filepath.Join(root, rel)
	if filepath.IsAbs(rel) {
		return "", &OutputDirError{Path: target, Err: errEscapesRoot}
	}
	r, err := filepath.Rel(filepath.Clean(root), target)
	if err != nil {
		return "", &OutputDirError{Path: target, Err: err}
	}
	if r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", &OutputDirError{Path: target, Err: errEscapesRoot}
	}
	return target, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// blank or dot-only segments become the placeholder
func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	if seg == "" || seg == "." || seg == ".." {
		return PlaceholderName
	}
	return weirdChars.Replace(seg)
}

func joinMaybe(root, p string) string {
	if strings.TrimSpace(root) == "" {
		return p
	}
	return strings.TrimRight(root, "/\\") + "/" + strings.TrimLeft(p, "/\\")
}

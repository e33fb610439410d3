// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Origin tells where a sourcemap was found.
type Origin string

const (
	OriginFile    Origin = "file"
	OriginStdin   Origin = "stdin"
	OriginHeader  Origin = "header"
	OriginComment Origin = "comment"
	OriginInline  Origin = "inline"
	OriginProbe   Origin = "probe"
)

// StdinName is the display name used for a sourcemap read from stdin.
const StdinName = "<stdin>"

var reSourceMapComment = regexp.MustCompile(`(?m)//[#@][ \t]*sourceMappingURL[ \t]*=[ \t]*(\S+)`)

var (
	errMalformedDataURI = errors.New("malformed data URI, missing ','")
	errInvalidUTF8      = errors.New("payload is not valid UTF-8")
)

// Located is a parsed sourcemap together with where it came from. MapURL is
// empty for local and inline maps.
type Located struct {
	Document *Document
	Origin   Origin
	MapURL   string
}

// Locator finds and decodes a sourcemap, either from a local reader or by
// discovery from a JavaScript bundle URL.
type Locator struct {
	Fetcher Fetcher
	// Probe makes FromBundle try "<bundle>.map" when the bundle references no
	// map at all.
	Probe bool
}

// FromReader decodes a sourcemap from r. name is used in error messages.
func (l *Locator) FromReader(r io.Reader, name string) (*Located, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{What: name, Err: err}
	}
	doc, err := parseFrom(data, name)
	if err != nil {
		return nil, err
	}
	origin := OriginFile
	if name == StdinName {
		origin = OriginStdin
	}
	return &Located{Document: doc, Origin: origin}, nil
}

// FromBundle fetches the bundle at bundleURL and discovers its sourcemap: the
// X-SourceMap header first, then the trailing sourceMappingURL directive,
// which is either an inline data URI or a URL to fetch.
func (l *Locator) FromBundle(ctx context.Context, bundleURL string) (*Located, error) {
	slog.Debug("Retrieving JavaScript file", "url", bundleURL)
	resp, err := l.Fetcher.Get(ctx, bundleURL)
	if err != nil {
		return nil, err
	}

	if ref := headerRef(resp); ref != "" {
		slog.Debug("Found X-SourceMap header", "value", ref)
		return l.fetchMap(ctx, bundleURL, ref, OriginHeader)
	}

	slog.Debug("No X-SourceMap header found, searching for sourceMappingURL in the file")
	if ref, ok := FindSourceMappingURL(string(resp.Body)); ok {
		if isDataURI(ref) {
			slog.Debug("Found inline sourcemap", "bytes", len(ref))
			data, err := DecodeDataURI(ref)
			if err != nil {
				return nil, err
			}
			doc, err := parseFrom(data, "inline sourcemap of "+bundleURL)
			if err != nil {
				return nil, err
			}
			return &Located{Document: doc, Origin: OriginInline}, nil
		}
		slog.Debug("Found sourceMappingURL in file", "value", ref)
		return l.fetchMap(ctx, bundleURL, ref, OriginComment)
	}

	if l.Probe {
		if located, ok := l.probe(ctx, bundleURL); ok {
			return located, nil
		}
	}
	return nil, &NotFoundError{URL: bundleURL}
}

func (l *Locator) fetchMap(ctx context.Context, bundleURL, ref string, origin Origin) (*Located, error) {
	mapURL, err := ResolveMapURL(bundleURL, ref)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	slog.Debug("Retrieving sourcemap", "url", mapURL)
	resp, err := l.Fetcher.Get(ctx, mapURL)
	if err != nil {
		return nil, err
	}
	doc, err := parseFrom(resp.Body, mapURL)
	if err != nil {
		return nil, err
	}
	return &Located{Document: doc, Origin: origin, MapURL: mapURL}, nil
}

// probe failures are not errors, the bundle simply has no map
func (l *Locator) probe(ctx context.Context, bundleURL string) (*Located, bool) {
	u, err := url.Parse(bundleURL)
	if err != nil || u.Path == "" {
		return nil, false
	}
	mapURL := u.ResolveReference(&url.URL{Path: u.Path + ".map"}).String()
	slog.Debug("Probing for sourcemap", "url", mapURL)
	resp, err := l.Fetcher.Get(ctx, mapURL)
	if err != nil {
		slog.Debug("Probe failed", "url", mapURL, "error", err)
		return nil, false
	}
	doc, err := parseFrom(resp.Body, mapURL)
	if err != nil {
		slog.Debug("Probe returned no usable sourcemap", "url", mapURL, "error", err)
		return nil, false
	}
	return &Located{Document: doc, Origin: OriginProbe, MapURL: mapURL}, true
}

// ResolveMapURL resolves ref against the bundle URL. A ref carrying a scheme
// is returned untouched.
func ResolveMapURL(bundleURL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if refURL.Scheme != "" {
		return ref, nil
	}
	base, err := url.Parse(bundleURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(refURL).String(), nil
}

// FindSourceMappingURL returns the value of the last sourceMappingURL
// directive in body. Both the "//#" and the legacy "//@" forms are accepted.
func FindSourceMappingURL(body string) (string, bool) {
	matches := reSourceMapComment.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return "", false
	}
	ref := strings.Trim(matches[len(matches)-1][1], "\"'")
	if ref == "" {
		return "", false
	}
	return ref, true
}

// DecodeDataURI returns the payload of a data: URI. Base64 payloads are
// decoded, others are percent-unescaped; the result must be valid UTF-8.
func DecodeDataURI(ref string) ([]byte, error) {
	if !isDataURI(ref) {
		return nil, &DecodeError{What: "data URI", Err: errMalformedDataURI}
	}
	meta, payload, ok := strings.Cut(ref[len("data:"):], ",")
	if !ok {
		return nil, &DecodeError{What: "data URI", Err: errMalformedDataURI}
	}

	var data []byte
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil && !strings.Contains(payload, "=") {
			// some bundlers drop the padding
			data, err = base64.RawStdEncoding.DecodeString(payload)
		}
		if err != nil {
			return nil, &DecodeError{What: "base64 sourcemap", Err: err}
		}
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, &DecodeError{What: "data URI", Err: err}
		}
		data = []byte(s)
	}

	if !utf8.Valid(data) {
		return nil, &DecodeError{What: "inline sourcemap", Err: errInvalidUTF8}
	}
	return data, nil
}

func isDataURI(ref string) bool {
	return len(ref) >= 5 && strings.EqualFold(ref[:5], "data:")
}

func headerRef(resp *Response) string {
	if resp.Header == nil {
		return ""
	}
	if v := strings.TrimSpace(resp.Header.Get("X-SourceMap")); v != "" {
		return v
	}
	return strings.TrimSpace(resp.Header.Get("SourceMap"))
}

func parseFrom(data []byte, source string) (*Document, error) {
	doc, err := Parse(data)
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Source = source
	}
	return doc, err
}

// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"errors"
	"fmt"
	"net/http"
)

var errNullDocument = errors.New("document is null")

// UsageError is returned when the caller supplied neither a sourcemap nor a
// bundle URL.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	if e.Msg == "" {
		return "no sourcemap given: pass a sourcemap file, pipe one on stdin, or use --auto_map <url>"
	}
	return e.Msg
}

// FetchError reports a transport failure or a non-success HTTP status.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports a base64, UTF-8 or read failure before JSON decoding.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseError reports a sourcemap that is not a JSON object.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid sourcemap JSON: %v", e.Err)
	}
	return fmt.Sprintf("invalid sourcemap JSON from %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError is returned when a bundle carries neither an X-SourceMap
// header nor a sourceMappingURL directive.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no sourceMappingURL found in %s and no X-SourceMap header present.\n"+
		"If you have the sourcemap file, run with that file as the sourcemap argument, without --auto_map", e.URL)
}

// SchemaError names a required sourcemap key that is missing or malformed.
type SchemaError struct {
	Key string
	Err error
}

func (e *SchemaError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sourcemap has no %q key", e.Key)
	}
	return fmt.Sprintf("sourcemap key %q: %v", e.Key, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// OutputDirError covers an unusable output directory and any write failure
// during extraction.
type OutputDirError struct {
	Path string
	Err  error
}

func (e *OutputDirError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Path, e.Err)
}

func (e *OutputDirError) Unwrap() error { return e.Err }

// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultUserAgent is sent when HTTPOptions.UserAgent is empty.
const DefaultUserAgent = "maxifier/1.0"

// Response is the part of an HTTP response the locator needs.
type Response struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher performs a GET. A transport failure or a status outside [200,400)
// must be reported as a *FetchError.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// HTTPOptions configures NewHTTPFetcher.
type HTTPOptions struct {
	UserAgent string
	Proxy     string
	Insecure  bool
	// Timeout of zero means no timeout.
	Timeout time.Duration
}

// HTTPFetcher is the net/http backed Fetcher.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher builds a client honoring the proxy and TLS options. Without
// an explicit proxy the environment proxy settings apply.
func NewHTTPFetcher(opts HTTPOptions) (*HTTPFetcher, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.ForceAttemptHTTP2 = false
		slog.Debug("Using proxy", "proxy", proxyURL.String())
	}
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for intercepting proxies
		slog.Warn("TLS verification disabled (insecure mode)")
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		userAgent: ua,
	}, nil
}

// Get fetches rawURL and reads the whole body.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	slog.Debug("GET", "url", rawURL)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return &Response{
		URL:    rawURL,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

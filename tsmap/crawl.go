// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/net/html"
)

var reScriptSrc = regexp.MustCompile(`(?i)<script[^>]+src\s*=\s*['"]([^'"]+)['"]`)

// CrawlConfig configures Crawl. Each script's sources land in
// OutDir/<host>/<script dir>.
type CrawlConfig struct {
	PageURL       string
	OutDir        string
	Transform     Transform
	UseSourceRoot bool
	SaveMap       bool

	Fetcher Fetcher
	Fs      afero.Fs
	OnWrite func(t Target, dest string)
}

// ScriptResult is the outcome for one script of the crawled page.
type ScriptResult struct {
	ScriptURL string
	OutDir    string
	Origin    Origin
	MapURL    string
	Written   int
	Err       error
}

// Crawl fetches an HTML page and extracts the sourcemap of every external
// script it references, one script at a time. A script without a usable map
// is recorded in its ScriptResult and does not stop the crawl; only failing to
// fetch the page itself is an error.
func Crawl(ctx context.Context, cfg CrawlConfig) ([]ScriptResult, error) {
	if strings.TrimSpace(cfg.PageURL) == "" {
		return nil, &UsageError{Msg: "missing page URL: use --url <page>"}
	}
	rootURL, err := url.Parse(cfg.PageURL)
	if err != nil {
		return nil, &UsageError{Msg: "invalid page URL: " + err.Error()}
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		f, err := NewHTTPFetcher(HTTPOptions{})
		if err != nil {
			return nil, err
		}
		fetcher = f
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = DefaultOutDir
	}

	slog.Debug("Fetching page", "url", rootURL.String())
	resp, err := fetcher.Get(ctx, rootURL.String())
	if err != nil {
		return nil, err
	}

	scripts := ParseScripts(string(resp.Body), rootURL)
	if len(scripts) == 0 {
		slog.Warn("No external script src found on page", "url", rootURL.String())
	}

	results := make([]ScriptResult, 0, len(scripts))
	for _, s := range scripts {
		sr := ScriptResult{ScriptURL: s.String(), OutDir: filepath.Join(outDir, hostPathForURL(s))}
		slog.Debug("Processing script", "url", sr.ScriptURL)

		res, err := Run(ctx, Config{
			AutoMap:       sr.ScriptURL,
			Probe:         true,
			OutDir:        sr.OutDir,
			Transform:     cfg.Transform,
			UseSourceRoot: cfg.UseSourceRoot,
			SaveMap:       cfg.SaveMap,
			Fetcher:       fetcher,
			Fs:            cfg.Fs,
			OnWrite:       cfg.OnWrite,
		})
		if res != nil {
			sr.Origin = res.Origin
			sr.MapURL = res.MapURL
			sr.Written = len(res.Written)
		}
		if err != nil {
			slog.Warn("No sources extracted for script", "url", sr.ScriptURL, "error", err)
			sr.Err = err
		}
		results = append(results, sr)
	}
	return results, nil
}

// ParseScripts returns the deduplicated, absolute src URLs of the <script>
// elements in page. A regexp scan is the fallback when the HTML does not parse.
func ParseScripts(page string, base *url.URL) []*url.URL {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return parseScriptsRegex(page, base)
	}
	var out []*url.URL
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "script") {
			for _, a := range n.Attr {
				if strings.EqualFold(a.Key, "src") && strings.TrimSpace(a.Val) != "" {
					if u, err := url.Parse(strings.TrimSpace(a.Val)); err == nil {
						out = append(out, base.ResolveReference(u))
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)
	return dedupURLs(out)
}

func parseScriptsRegex(page string, base *url.URL) []*url.URL {
	var out []*url.URL
	for _, m := range reScriptSrc.FindAllStringSubmatch(page, -1) {
		if u, err := url.Parse(m[1]); err == nil {
			out = append(out, base.ResolveReference(u))
		}
	}
	return dedupURLs(out)
}

func dedupURLs(in []*url.URL) []*url.URL {
	seen := make(map[string]bool, len(in))
	out := make([]*url.URL, 0, len(in))
	for _, u := range in {
		if u == nil || seen[u.String()] {
			continue
		}
		seen[u.String()] = true
		out = append(out, u)
	}
	return out
}

// host plus the script's directory, confined like a source path
func hostPathForURL(scriptURL *url.URL) string {
	dir := path.Dir(scriptURL.Path)
	if dir == "." || dir == "/" {
		dir = ""
	}
	return NormalizeSourcePath(scriptURL.Hostname() + "/" + dir)
}

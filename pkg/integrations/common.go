package integrations

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	httpTimeout     = 10 * time.Second
	pageTimeout     = 15 * time.Second
	downloadTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every upstream request.
	DefaultUserAgent = "curator/1.0 (+https://github.com/matzehuels/curator)"
)

// NewHTTPClient creates the HTTP client shared by source clients.
// Per-request timeouts are applied through the request context.
func NewHTTPClient() *http.Client {
	return &http.Client{}
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI and other registries.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

var repoURLReplacer = strings.NewReplacer(
	"ssh://git@github.com/", "https://github.com/",
	"ssh://git@gitlab.com/", "https://gitlab.com/",
	"git@github.com:", "https://github.com/",
	"git@gitlab.com:", "https://gitlab.com/",
	"git://github.com/", "https://github.com/",
	"git://gitlab.com/", "https://gitlab.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, ssh://git@ and git+ prefixes, and removes .git suffixes.
// Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}

// RepoRef identifies a hosted repository.
type RepoRef struct {
	Host  string // github.com or gitlab.com
	Owner string // owner or namespace path
	Repo  string
}

// Path returns "owner/repo".
func (r RepoRef) Path() string { return r.Owner + "/" + r.Repo }

// ParseRepoURL extracts host, owner and repository from a GitHub or GitLab
// URL. GitLab owners may span several groups. ok is false for other hosts.
func ParseRepoURL(raw string) (ref RepoRef, ok bool) {
	u, err := url.Parse(NormalizeRepoURL(raw))
	if err != nil || u.Host == "" {
		return RepoRef{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "github.com":
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return RepoRef{}, false
		}
		return RepoRef{Host: host, Owner: parts[0], Repo: parts[1]}, true
	case "gitlab.com":
		// Stop at GitLab's "/-/" separator (e.g. /-/tree/main).
		for i, p := range parts {
			if p == "-" {
				parts = parts[:i]
				break
			}
		}
		if len(parts) < 2 || parts[0] == "" {
			return RepoRef{}, false
		}
		return RepoRef{
			Host:  host,
			Owner: strings.Join(parts[:len(parts)-1], "/"),
			Repo:  parts[len(parts)-1],
		}, true
	}
	return RepoRef{}, false
}

var repoURLKeys = []string{"Source", "Source Code", "Repository", "repository", "source", "Code", "GitHub", "Homepage"}

var docURLKeys = []string{"Documentation", "documentation", "Docs", "docs"}

// ProbeURL returns the first non-empty value of urls under one of keys,
// trying each key in order.
func ProbeURL(urls map[string]string, keys ...string) string {
	for _, key := range keys {
		if u := strings.TrimSpace(urls[key]); u != "" {
			return u
		}
	}
	return ""
}

// DocumentationURLFrom returns the documentation link among project urls.
func DocumentationURLFrom(urls map[string]string) string {
	return ProbeURL(urls, docURLKeys...)
}

// FindRepoURL returns the canonical GitHub or GitLab repository URL among
// package urls. The standard keys (Source, Repository, Code, Homepage) are
// tried first, then every other url in key order, then homepage. Sponsor
// pages never match. Empty when nothing matches.
func FindRepoURL(urls map[string]string, homepage string) string {
	match := func(u string) (string, bool) {
		if u == "" || strings.Contains(u, "/sponsors/") {
			return "", false
		}
		ref, ok := ParseRepoURL(u)
		if !ok {
			return "", false
		}
		return "https://" + ref.Host + "/" + ref.Path(), true
	}

	for _, key := range repoURLKeys {
		if u, ok := match(urls[key]); ok {
			return u
		}
	}
	keys := make([]string, 0, len(urls))
	for k := range urls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if u, ok := match(urls[k]); ok {
			return u
		}
	}
	u, _ := match(homepage)
	return u
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }

// SortedKeysByValue returns the keys of m ordered by descending value,
// ties broken alphabetically.
func SortedKeysByValue[V int | int64 | float64](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if m[a] != m[b] {
			return m[a] > m[b]
		}
		return a < b
	})
	return keys
}

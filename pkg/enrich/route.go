package enrich

import (
	"context"
	"errors"
	"strings"

	"github.com/matzehuels/curator/pkg/catalog"
	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/integrations/feed"
)

// Fetcher returns normalized metadata for an upstream identifier.
// *integrations.Client implements it.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, id string) (*integrations.Metadata, error)
}

// Clients holds one fetcher per upstream. A nil fetcher disables its
// route; records that would use it are skipped.
type Clients struct {
	GitHub  Fetcher
	GitLab  Fetcher
	Arxiv   Fetcher
	YouTube Fetcher
	Feed    Fetcher
	Scrape  Fetcher
	// Registries is keyed by canonical registry name, see [CanonicalRegistry].
	Registries map[string]Fetcher
}

var registryAliases = map[string]string{
	"npm":       "npm",
	"pypi":      "pypi",
	"pip":       "pypi",
	"python":    "pypi",
	"crates":    "crates",
	"cargo":     "crates",
	"crates.io": "crates",
	"rust":      "crates",
	"rubygems":  "rubygems",
	"gem":       "rubygems",
	"ruby":      "rubygems",
	"packagist": "packagist",
	"composer":  "packagist",
	"php":       "packagist",
	"maven":     "maven",
	"java":      "maven",
	"go":        "go",
	"golang":    "go",
	"goproxy":   "go",
}

// CanonicalRegistry maps a registry name as authored in records ("pip",
// "cargo", "golang") to the key used in [Clients.Registries]. Unknown
// names are returned lowercased.
func CanonicalRegistry(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if c, ok := registryAliases[n]; ok {
		return c
	}
	return n
}

// errNotConfigured marks a route whose fetcher is nil.
var errNotConfigured = errors.New("source not configured")

// route is the resolved upstream call for one record.
type route struct {
	fetcher Fetcher
	id      string
}

// resolve picks the fetcher and identifier for rec. It returns an
// *errors.IdentifierMissingError when the record lacks the field its
// kind needs.
func (c *Clients) resolve(rec catalog.Record) (route, error) {
	b := rec.Common()
	missing := func(field string) error {
		return &cerrors.IdentifierMissingError{Kind: string(b.Type), Field: field, ID: b.ID}
	}

	switch r := rec.(type) {
	case *catalog.Repository:
		return c.repo(r.RepositoryURL, missing)
	case *catalog.Library:
		if r.Registry != "" && r.PackageName != "" {
			return pick(c.Registries[CanonicalRegistry(r.Registry)], r.PackageName)
		}
		return c.repo(r.RepositoryURL, missing)
	case *catalog.Paper:
		if r.ArxivID == "" {
			return route{}, missing("arxivId")
		}
		return pick(c.Arxiv, r.ArxivID)
	case *catalog.Video:
		if r.VideoID == "" {
			return route{}, missing("videoId")
		}
		return pick(c.YouTube, r.VideoID)
	case *catalog.Podcast, *catalog.Newsletter, *catalog.Article:
		rss, target, _, _ := catalog.FeedOf(rec)
		if rss == "" {
			return route{}, missing("rssUrl")
		}
		return pick(c.Feed, feed.ID(rss, target))
	case *catalog.Tool:
		if r.ToolURL == "" {
			return route{}, missing("toolUrl")
		}
		return pick(c.Scrape, r.ToolURL)
	case *catalog.Book, *catalog.Documentation, *catalog.Community,
		*catalog.Conference, *catalog.Cheatsheet, *catalog.Certification:
		u := catalog.PageURL(rec)
		if u == "" {
			return route{}, missing("url")
		}
		return pick(c.Scrape, u)
	}
	return route{}, cerrors.New(cerrors.ErrCodeUnsupported, "no route for %s record %q", b.Type, b.ID)
}

// repo routes a GitHub or GitLab URL. Other hosts count as a missing
// identifier, since no client can serve them.
func (c *Clients) repo(rawURL string, missing func(string) error) (route, error) {
	if rawURL == "" {
		return route{}, missing("repositoryUrl")
	}
	ref, ok := integrations.ParseRepoURL(rawURL)
	if !ok {
		return route{}, missing("repositoryUrl on github.com or gitlab.com")
	}
	if ref.Host == "gitlab.com" {
		return pick(c.GitLab, ref.Path())
	}
	return pick(c.GitHub, ref.Path())
}

func pick(f Fetcher, id string) (route, error) {
	if f == nil {
		return route{}, errNotConfigured
	}
	return route{fetcher: f, id: id}, nil
}

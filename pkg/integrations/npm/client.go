package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

const (
	// DefaultBaseURL is the public npm registry.
	DefaultBaseURL = "https://registry.npmjs.org"
	// DefaultDownloadsURL serves download counts.
	DefaultDownloadsURL = "https://api.npmjs.org"
)

// Adapter reads package metadata from the npm registry.
type Adapter struct {
	baseURL      string
	downloadsURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at another registry root.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// WithDownloadsURL points the adapter at another downloads API root.
func WithDownloadsURL(u string) Option {
	return func(a *Adapter) { a.downloadsURL = strings.TrimSuffix(u, "/") }
}

// New creates an npm adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: DefaultBaseURL, downloadsURL: DefaultDownloadsURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by an npm adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "npm" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 60} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch reads the latest version's manifest and last month's downloads.
// A failing downloads call leaves Downloads at zero.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	pkg := strings.ToLower(strings.TrimSpace(id))
	if err := cerrors.ValidateNpmPackageName(pkg); err != nil {
		return nil, err
	}

	var data registryResponse
	if err := r.GetJSON(ctx, a.baseURL+"/"+pkg, &data); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("npm package %s: %w", pkg, err)
		}
		return nil, err
	}

	latest := data.DistTags.Latest
	v, ok := data.Versions[latest]
	if !ok {
		return nil, &cerrors.ParseError{Source: "npm", Err: fmt.Errorf("version %q of %s not in manifest", latest, pkg)}
	}

	md := &integrations.Metadata{
		Title:         data.Name,
		Description:   v.Description,
		URL:           "https://www.npmjs.com/package/" + pkg,
		Version:       latest,
		License:       extractField(v.License, "type"),
		Author:        extractField(v.Author, "name"),
		RepositoryURL: integrations.NormalizeRepoURL(extractField(v.Repository, "url")),
		Homepage:      v.HomePage,
		Topics:        v.Keywords,
	}

	if md.RepositoryURL == "" {
		md.RepositoryURL = integrations.FindRepoURL(nil, v.HomePage)
	}

	var dl downloadsResponse
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/downloads/point/last-month/%s", a.downloadsURL, pkg), &dl); err == nil {
		md.Downloads = dl.Downloads
	} else if cerrors.IsRateLimit(err) || ctx.Err() != nil {
		return nil, err
	}
	return md, nil
}

// extractField reads either a plain string or field of an object, the two
// shapes npm manifests use for license, author and repository.
func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

type registryResponse struct {
	Name     string                    `json:"name"`
	DistTags distTags                  `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	Description string   `json:"description"`
	License     any      `json:"license"`
	Author      any      `json:"author"`
	Repository  any      `json:"repository"`
	HomePage    string   `json:"homepage"`
	Keywords    []string `json:"keywords"`
}

type downloadsResponse struct {
	Downloads int64 `json:"downloads"`
}

var _ integrations.Adapter = (*Adapter)(nil)

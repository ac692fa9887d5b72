package packagist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

const (
	// DefaultRepoURL serves Composer v2 metadata.
	DefaultRepoURL = "https://repo.packagist.org"
	// DefaultSiteURL serves package statistics.
	DefaultSiteURL = "https://packagist.org"
)

// Adapter reads PHP package metadata from Packagist.
// Identifiers are "vendor/package".
type Adapter struct {
	repoURL string
	siteURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points both Packagist endpoints at u.
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		a.repoURL = strings.TrimSuffix(u, "/")
		a.siteURL = a.repoURL
	}
}

// New creates a Packagist adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{repoURL: DefaultRepoURL, siteURL: DefaultSiteURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a Packagist adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "packagist" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 60} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch reads the latest stable version from the p2 metadata and the
// download and favorite counts from the package page API. Stats failures
// other than rate limiting are ignored.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	pkg := strings.ToLower(strings.TrimSpace(id))
	if vendor, name, ok := strings.Cut(pkg, "/"); !ok || vendor == "" || name == "" || strings.Contains(name, "/") {
		return nil, cerrors.New(cerrors.ErrCodeInvalidIdentifier, "packagist name must be vendor/package: %q", id)
	}
	if err := cerrors.ValidateIdentifier(pkg); err != nil {
		return nil, err
	}

	var data p2Response
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/p2/%s.json", a.repoURL, pkg), &data); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("packagist package %s: %w", pkg, err)
		}
		return nil, err
	}

	versions := data.Packages[pkg]
	if len(versions) == 0 {
		return nil, &cerrors.ParseError{Source: "packagist", Err: fmt.Errorf("no versions for %s", pkg)}
	}
	v := latestStable(versions)

	var license, author string
	if len(v.License) > 0 {
		license = v.License[0]
	}
	if len(v.Authors) > 0 {
		author = strings.TrimSpace(v.Authors[0].Name)
	}

	md := &integrations.Metadata{
		Title:         pkg,
		Description:   v.Description,
		URL:           "https://packagist.org/packages/" + pkg,
		Version:       strings.TrimPrefix(v.Version, "v"),
		License:       license,
		Author:        author,
		RepositoryURL: integrations.NormalizeRepoURL(v.Source.URL),
		Homepage:      v.Homepage,
		Topics:        v.Keywords,
	}

	var stats statsResponse
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/packages/%s.json", a.siteURL, pkg), &stats); err == nil {
		md.Downloads = stats.Package.Downloads.Total
		md.Stars = stats.Package.Favers
	} else if cerrors.IsRateLimit(err) || ctx.Err() != nil {
		return nil, err
	}
	return md, nil
}

// latestStable returns the first non-dev release. p2 lists versions newest
// first; when only dev versions exist the first entry is used.
func latestStable(versions []p2Version) p2Version {
	for _, v := range versions {
		lv := strings.ToLower(v.Version)
		if strings.Contains(lv, "dev") {
			continue
		}
		if strings.Contains(strings.TrimPrefix(lv, "v"), ".") {
			return v
		}
	}
	return versions[0]
}

type p2Response struct {
	Packages map[string][]p2Version `json:"packages"`
}

type p2Version struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     []string
	Keywords    []string
	Source      struct {
		URL string `json:"url"`
	}
	Authors []struct {
		Name string `json:"name"`
	}
}

// UnmarshalJSON tolerates the minified p2 format, where license and
// keywords may be a string, a list or the "__unset" marker.
func (v *p2Version) UnmarshalJSON(b []byte) error {
	type raw struct {
		Name        string          `json:"name"`
		Version     string          `json:"version"`
		Description string          `json:"description"`
		Homepage    string          `json:"homepage"`
		License     json.RawMessage `json:"license"`
		Keywords    json.RawMessage `json:"keywords"`
		Source      struct {
			URL string `json:"url"`
		} `json:"source"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
	}

	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}

	v.Name = r.Name
	v.Version = r.Version
	v.Description = r.Description
	v.Homepage = r.Homepage
	v.Source = r.Source
	v.Authors = r.Authors
	v.License = stringList(r.License)
	v.Keywords = stringList(r.Keywords)
	return nil
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var single string
	if json.Unmarshal(raw, &single) == nil && single != "" && single != "__unset" {
		return []string{single}
	}
	return nil
}

type statsResponse struct {
	Package struct {
		Downloads struct {
			Total int64 `json:"total"`
		} `json:"downloads"`
		Favers int `json:"favers"`
	} `json:"package"`
}

var _ integrations.Adapter = (*Adapter)(nil)

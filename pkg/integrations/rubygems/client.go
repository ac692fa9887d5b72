package rubygems

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

// DefaultBaseURL is the RubyGems API root.
const DefaultBaseURL = "https://rubygems.org/api/v1"

// Adapter reads gem metadata from RubyGems.
type Adapter struct {
	baseURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at another API root.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates a RubyGems adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a RubyGems adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "rubygems" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 300} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch reads /gems/{name}.json. Gem names are lowercased.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	gem := strings.ToLower(strings.TrimSpace(id))
	if err := cerrors.ValidateIdentifier(gem); err != nil {
		return nil, err
	}

	var data gemResponse
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/gems/%s.json", a.baseURL, gem), &data); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("gem %s: %w", gem, err)
		}
		return nil, err
	}

	repoURL := data.SourceCodeURI
	if repoURL == "" {
		if _, ok := integrations.ParseRepoURL(data.HomepageURI); ok {
			repoURL = data.HomepageURI
		}
	}

	return &integrations.Metadata{
		Title:            data.Name,
		Description:      data.Info,
		URL:              data.ProjectURI,
		Version:          data.Version,
		License:          strings.Join(data.Licenses, ", "),
		Author:           data.Authors,
		Downloads:        data.Downloads,
		Homepage:         data.HomepageURI,
		RepositoryURL:    integrations.NormalizeRepoURL(repoURL),
		DocumentationURL: data.DocumentationURI,
	}, nil
}

type gemResponse struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	Info             string   `json:"info"`
	Licenses         []string `json:"licenses"`
	SourceCodeURI    string   `json:"source_code_uri"`
	HomepageURI      string   `json:"homepage_uri"`
	DocumentationURI string   `json:"documentation_uri"`
	ProjectURI       string   `json:"project_uri"`
	Downloads        int64    `json:"downloads"`
	Authors          string   `json:"authors"`
}

var _ integrations.Adapter = (*Adapter)(nil)

package crates

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

// DefaultBaseURL is the crates.io API root.
const DefaultBaseURL = "https://crates.io/api/v1"

// crates.io asks crawlers for at most one request per second.
var limits = ratelimit.Limits{PerMinute: 60, MinInterval: time.Second}

// Adapter reads crate metadata from crates.io.
type Adapter struct {
	baseURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at another API root.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates a crates.io adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a crates.io adapter.
// The client's User-Agent satisfies the crates.io crawler policy.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "crates" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return limits }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch reads the crate summary. The license comes from the max_version
// entry of the versions list, which the crate object itself lacks.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	name := strings.TrimSpace(id)
	if err := cerrors.ValidateCratesPackageName(name); err != nil {
		return nil, err
	}

	var data crateResponse
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/crates/%s", a.baseURL, name), &data); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("crate %s: %w", name, err)
		}
		return nil, err
	}

	license := data.Crate.License
	for _, v := range data.Versions {
		if v.Num == data.Crate.MaxVersion && v.License != "" {
			license = v.License
			break
		}
	}

	repoURL := integrations.NormalizeRepoURL(data.Crate.Repository)
	if repoURL == "" {
		repoURL = integrations.FindRepoURL(nil, data.Crate.HomePage)
	}

	return &integrations.Metadata{
		Title:            data.Crate.Name,
		Description:      strings.TrimSpace(data.Crate.Description),
		URL:              "https://crates.io/crates/" + name,
		Version:          data.Crate.MaxVersion,
		License:          license,
		Downloads:        data.Crate.Downloads,
		RepositoryURL:    repoURL,
		Homepage:         data.Crate.HomePage,
		DocumentationURL: data.Crate.Documentation,
		Topics:           data.Crate.Keywords,
		LastCommit:       data.Crate.UpdatedAt,
	}, nil
}

type crateResponse struct {
	Crate struct {
		Name          string     `json:"name"`
		MaxVersion    string     `json:"max_version"`
		Description   string     `json:"description"`
		License       string     `json:"license"`
		Repository    string     `json:"repository"`
		HomePage      string     `json:"homepage"`
		Documentation string     `json:"documentation"`
		Downloads     int64      `json:"downloads"`
		Keywords      []string   `json:"keywords"`
		UpdatedAt     *time.Time `json:"updated_at"`
	} `json:"crate"`
	Versions []struct {
		Num     string `json:"num"`
		License string `json:"license"`
	} `json:"versions"`
}

var _ integrations.Adapter = (*Adapter)(nil)

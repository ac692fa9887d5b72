package github

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

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

var (
	anonymousLimits     = ratelimit.Limits{PerMinute: 10, PerHour: 60}
	authenticatedLimits = ratelimit.Limits{PerMinute: 100, PerHour: 5000}
)

// Adapter reads repository metadata from the GitHub REST API.
// Identifiers are "owner/repo".
type Adapter struct {
	token   string
	baseURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates a GitHub adapter. An empty token uses anonymous access with
// lower rate ceilings.
func New(token string, opts ...Option) *Adapter {
	a := &Adapter{token: token, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a GitHub adapter.
func NewClient(token string, opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(token, adapterOpts...), opts)
}

func (a *Adapter) Name() string            { return "github" }
func (a *Adapter) CacheTTL() time.Duration { return time.Hour }

// Limits returns 100/min and 5000/h with a token, 10/min and 60/h without.
func (a *Adapter) Limits() ratelimit.Limits {
	if a.token != "" {
		return authenticatedLimits
	}
	return anonymousLimits
}

func (a *Adapter) Headers() map[string]string {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if a.token != "" {
		headers["Authorization"] = "Bearer " + a.token
	}
	return headers
}

// Fetch retrieves repository metrics and the language breakdown.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	owner, repo, err := ParseRepoRef(id)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidIdentifier, err, "github repo %q", id)
	}

	var data repoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", a.baseURL, owner, repo)
	if err := r.GetJSON(ctx, url, &data); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("github repo %s/%s: %w", owner, repo, err)
		}
		return nil, err
	}

	languages, err := a.fetchLanguages(ctx, r, owner, repo)
	if err != nil && !errors.Is(err, cerrors.ErrNotFound) {
		return nil, err
	}

	license := data.License.SPDXID
	if license == "NOASSERTION" {
		license = ""
	}

	return &integrations.Metadata{
		Title:         data.FullName,
		Description:   data.Description,
		URL:           fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		RepositoryURL: fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		Homepage:      data.Homepage,
		License:       license,
		Topics:        data.Topics,
		Languages:     languages,
		Stars:         data.Stars,
		Forks:         data.Forks,
		Watchers:      data.Subscribers,
		OpenIssues:    data.OpenIssues,
		Archived:      data.Archived,
		LastCommit:    data.PushedAt,
	}, nil
}

// fetchLanguages returns language names ordered by byte count, descending.
func (a *Adapter) fetchLanguages(ctx context.Context, r integrations.Requester, owner, repo string) ([]string, error) {
	var data map[string]int64
	url := fmt.Sprintf("%s/repos/%s/%s/languages", a.baseURL, owner, repo)
	if err := r.GetJSON(ctx, url, &data); err != nil {
		return nil, err
	}
	return integrations.SortedKeysByValue(data), nil
}

type repoResponse struct {
	FullName    string     `json:"full_name"`
	Description string     `json:"description"`
	Homepage    string     `json:"homepage"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	Subscribers int        `json:"subscribers_count"`
	OpenIssues  int        `json:"open_issues_count"`
	PushedAt    *time.Time `json:"pushed_at"`
	License     struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
	Topics   []string `json:"topics"`
	Archived bool     `json:"archived"`
}

var _ integrations.Adapter = (*Adapter)(nil)

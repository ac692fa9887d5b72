package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

// DefaultBaseURL is the gitlab.com API root.
const DefaultBaseURL = "https://gitlab.com/api/v4"

// Adapter reads project metadata from the GitLab REST API (v4).
// Identifiers are project paths, e.g. "gitlab-org/cli" or "group/sub/project".
type Adapter struct {
	token   string
	baseURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at a self-managed instance or test server.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates a GitLab adapter. token may be empty.
func New(token string, opts ...Option) *Adapter {
	a := &Adapter{token: token, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a GitLab adapter.
func NewClient(token string, opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(token, adapterOpts...), opts)
}

func (a *Adapter) Name() string            { return "gitlab" }
func (a *Adapter) CacheTTL() time.Duration { return time.Hour }

func (a *Adapter) Limits() ratelimit.Limits {
	if a.token != "" {
		return ratelimit.Limits{PerMinute: 300, PerHour: 10000}
	}
	return ratelimit.Limits{PerMinute: 30, PerHour: 500}
}

func (a *Adapter) Headers() map[string]string {
	if a.token == "" {
		return nil
	}
	return map[string]string{"PRIVATE-TOKEN": a.token}
}

// Fetch retrieves project metrics and the language breakdown.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	path := strings.Trim(strings.TrimSuffix(id, ".git"), "/")
	if err := cerrors.ValidateIdentifier(path); err != nil || !strings.Contains(path, "/") {
		return nil, cerrors.New(cerrors.ErrCodeInvalidIdentifier, "gitlab project %q: expected namespace/project", id)
	}
	project := url.PathEscape(path)

	var data projectResponse
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/projects/%s?license=true", a.baseURL, project), &data); err != nil {
		return nil, err
	}

	var langs map[string]float64
	err := r.GetJSON(ctx, fmt.Sprintf("%s/projects/%s/languages", a.baseURL, project), &langs)
	if err != nil && !errors.Is(err, cerrors.ErrNotFound) {
		return nil, err
	}

	topics := data.Topics
	if len(topics) == 0 {
		topics = data.TagList
	}
	license := ""
	if data.License != nil {
		license = data.License.Nickname
		if license == "" {
			license = data.License.Name
		}
	}

	return &integrations.Metadata{
		Title:         data.PathWithNamespace,
		Description:   data.Description,
		URL:           data.WebURL,
		RepositoryURL: data.WebURL,
		License:       license,
		Topics:        topics,
		Languages:     integrations.SortedKeysByValue(langs),
		Stars:         data.StarCount,
		Forks:         data.ForksCount,
		OpenIssues:    data.OpenIssuesCount,
		Archived:      data.Archived,
		LastCommit:    data.LastActivityAt,
		Author:        data.Namespace.Name,
	}, nil
}

type projectResponse struct {
	PathWithNamespace string     `json:"path_with_namespace"`
	Description       string     `json:"description"`
	WebURL            string     `json:"web_url"`
	StarCount         int        `json:"star_count"`
	ForksCount        int        `json:"forks_count"`
	OpenIssuesCount   int        `json:"open_issues_count"`
	Topics            []string   `json:"topics"`
	TagList           []string   `json:"tag_list"`
	Archived          bool       `json:"archived"`
	LastActivityAt    *time.Time `json:"last_activity_at"`
	Namespace         struct {
		Name     string `json:"name"`
		FullPath string `json:"full_path"`
	} `json:"namespace"`
	License *struct {
		Key      string `json:"key"`
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	} `json:"license"`
}

var _ integrations.Adapter = (*Adapter)(nil)

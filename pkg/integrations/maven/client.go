package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

const (
	// DefaultSearchURL is the Maven Central search endpoint.
	DefaultSearchURL = "https://search.maven.org/solrsearch/select"
	// DefaultRepoURL is the Maven Central artifact repository.
	DefaultRepoURL = "https://repo1.maven.org/maven2"
)

// Adapter reads artifact metadata from Maven Central.
// Identifiers are "groupId:artifactId".
type Adapter struct {
	searchURL string
	repoURL   string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithSearchURL points the adapter at another search endpoint.
func WithSearchURL(u string) Option {
	return func(a *Adapter) { a.searchURL = strings.TrimSuffix(u, "/") }
}

// WithRepoURL points the adapter at another artifact repository.
func WithRepoURL(u string) Option {
	return func(a *Adapter) { a.repoURL = strings.TrimSuffix(u, "/") }
}

// New creates a Maven Central adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{searchURL: DefaultSearchURL, repoURL: DefaultRepoURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a Maven Central adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "maven" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 30} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch finds the latest version through the search API, then reads the
// POM of that version for description, URL, license and SCM. POM failures
// other than rate limiting leave those fields empty.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	groupID, artifactID, err := parseCoordinate(id)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("g:%q AND a:%q", groupID, artifactID)
	url := fmt.Sprintf("%s?q=%s&rows=1&wt=json", a.searchURL, integrations.URLEncode(query))

	var search searchResponse
	if err := r.GetJSON(ctx, url, &search); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("maven artifact %s:%s: %w", groupID, artifactID, err)
		}
		return nil, err
	}
	if search.Response.NumFound == 0 || len(search.Response.Docs) == 0 {
		return nil, fmt.Errorf("maven artifact %s:%s: %w", groupID, artifactID, cerrors.ErrNotFound)
	}

	doc := search.Response.Docs[0]
	version := doc.LatestVersion
	if version == "" {
		version = doc.Version
	}

	md := &integrations.Metadata{
		Title:   groupID + ":" + artifactID,
		URL:     fmt.Sprintf("https://central.sonatype.com/artifact/%s/%s", groupID, artifactID),
		Version: version,
	}
	if doc.Timestamp > 0 {
		md.LastCommit = integrations.TimePtr(time.UnixMilli(doc.Timestamp).UTC())
	}

	pom, err := a.fetchPOM(ctx, r, groupID, artifactID, version)
	switch {
	case err == nil:
		if pom.Name != "" {
			md.Title = pom.Name
		}
		md.Description = strings.TrimSpace(pom.Description)
		md.Homepage = pom.URL
		if len(pom.Licenses) > 0 {
			md.License = pom.Licenses[0].Name
		}
		md.RepositoryURL = scmRepoURL(pom.SCM)
	case cerrors.IsRateLimit(err) || ctx.Err() != nil:
		return nil, err
	}
	return md, nil
}

func (a *Adapter) fetchPOM(ctx context.Context, r integrations.Requester, groupID, artifactID, version string) (*pomProject, error) {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	url := fmt.Sprintf("%s/%s/%s/%s/%s-%s.pom", a.repoURL, groupPath, artifactID, version, artifactID, version)

	body, err := r.GetText(ctx, url)
	if err != nil {
		return nil, err
	}
	var pom pomProject
	if err := xml.Unmarshal([]byte(body), &pom); err != nil {
		return nil, &cerrors.ParseError{Source: "maven", Err: err}
	}
	return &pom, nil
}

// scmRepoURL picks a GitHub or GitLab link from the POM's scm section.
// scm:git: prefixes are stripped.
func scmRepoURL(scm pomSCM) string {
	for _, u := range []string{scm.URL, scm.Connection, scm.DeveloperConnection} {
		u = strings.TrimPrefix(strings.TrimSpace(u), "scm:git:")
		if _, ok := integrations.ParseRepoURL(u); ok {
			return integrations.NormalizeRepoURL(u)
		}
	}
	return ""
}

func parseCoordinate(coord string) (groupID, artifactID string, err error) {
	parts := strings.Split(strings.TrimSpace(coord), ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", cerrors.New(cerrors.ErrCodeInvalidIdentifier, "invalid maven coordinate %q (expected groupId:artifactId)", coord)
	}
	for _, p := range parts[:2] {
		if err := cerrors.ValidateIdentifier(p); err != nil {
			return "", "", err
		}
	}
	return parts[0], parts[1], nil
}

type searchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	GroupID       string `json:"g"`
	ArtifactID    string `json:"a"`
	Version       string `json:"v"`
	LatestVersion string `json:"latestVersion"`
	Timestamp     int64  `json:"timestamp"`
}

type pomProject struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	URL         string `xml:"url"`
	Licenses    []struct {
		Name string `xml:"name"`
	} `xml:"licenses>license"`
	SCM pomSCM `xml:"scm"`
}

type pomSCM struct {
	URL                 string `xml:"url"`
	Connection          string `xml:"connection"`
	DeveloperConnection string `xml:"developerConnection"`
}

var _ integrations.Adapter = (*Adapter)(nil)

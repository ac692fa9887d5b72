package pypi

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

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

// Adapter reads package metadata from the PyPI JSON API.
type Adapter struct {
	baseURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at another API root.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates a PyPI adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a PyPI adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "pypi" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 60} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch reads the project's latest release info. Repository and
// documentation links are probed among project_urls.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	pkg := integrations.NormalizePkgName(id)
	if err := cerrors.ValidatePythonPackageName(pkg); err != nil {
		return nil, err
	}

	var data apiResponse
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/%s/json", a.baseURL, pkg), &data); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("pypi package %s: %w", pkg, err)
		}
		return nil, err
	}

	urls := make(map[string]string, len(data.Info.ProjectURLs))
	for k, v := range data.Info.ProjectURLs {
		if s, ok := v.(string); ok {
			urls[k] = s
		}
	}

	homepage := data.Info.HomePage
	if homepage == "" {
		homepage = integrations.ProbeURL(urls, "Homepage", "homepage", "Home")
	}
	repoURL := integrations.FindRepoURL(urls, homepage)

	return &integrations.Metadata{
		Title:            data.Info.Name,
		Description:      data.Info.Summary,
		URL:              "https://pypi.org/project/" + pkg + "/",
		Version:          data.Info.Version,
		License:          extractLicenseType(data.Info.License, data.Info.Classifiers),
		Author:           data.Info.Author,
		Homepage:         homepage,
		RepositoryURL:    repoURL,
		DocumentationURL: integrations.DocumentationURLFrom(urls),
		Topics:           splitKeywords(data.Info.Keywords),
	}, nil
}

// splitKeywords accepts comma or whitespace separated keyword strings.
func splitKeywords(s string) []string {
	sep := func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' }
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.FieldsFunc(s, sep) {
		k := strings.ToLower(f)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Summary     string         `json:"summary"`
	License     string         `json:"license"`
	Classifiers []string       `json:"classifiers"`
	Keywords    string         `json:"keywords"`
	ProjectURLs map[string]any `json:"project_urls"`
	HomePage    string         `json:"home_page"`
	Author      string         `json:"author"`
}

// extractLicenseType extracts a short license identifier from PyPI data.
// It prefers the classifier (e.g., "License :: OSI Approved :: MIT License" -> "MIT License")
// and falls back to the license field if it's short enough.
func extractLicenseType(license string, classifiers []string) string {
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				return parts[len(parts)-1]
			}
		}
	}

	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}

	// Full license text: keep its first line if short.
	if license != "" {
		firstLine := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(firstLine) < 50 {
			return firstLine
		}
	}

	return ""
}

var _ integrations.Adapter = (*Adapter)(nil)

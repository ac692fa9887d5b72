package goproxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

// DefaultBaseURL is the public Go module proxy.
const DefaultBaseURL = "https://proxy.golang.org"

// Adapter reads module versions from a Go module proxy.
type Adapter struct {
	baseURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at another proxy.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates a Go module proxy adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a module proxy adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "goproxy" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 120} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch resolves the module's @latest version. Module paths on github.com
// and gitlab.com also yield a repository URL.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	mod := strings.TrimSpace(id)
	if err := cerrors.ValidateGoModulePath(mod); err != nil {
		return nil, err
	}
	escaped, err := module.EscapePath(mod)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidIdentifier, err, "go module %q", mod)
	}

	var data latestResponse
	if err := r.GetJSON(ctx, fmt.Sprintf("%s/%s/@latest", a.baseURL, escaped), &data); err != nil {
		// The proxy answers 410 Gone for modules it refuses to serve.
		if errors.Is(err, cerrors.ErrNotFound) || cerrors.StatusCode(err) == 410 {
			return nil, fmt.Errorf("go module %s: %w", mod, err)
		}
		return nil, err
	}

	md := &integrations.Metadata{
		Title:      mod,
		URL:        "https://pkg.go.dev/" + mod,
		Version:    NormalizeVersion(data.Version),
		LastCommit: integrations.ParseTime(data.Time),
	}
	if ref, ok := integrations.ParseRepoURL("https://" + mod); ok {
		md.RepositoryURL = "https://" + ref.Host + "/" + ref.Path()
	}
	md.DocumentationURL = md.URL
	return md, nil
}

// NormalizeVersion strips the leading "v" and any pre-release or build
// suffix. Versions that are not semver, and pseudo-versions, become "0.0.0".
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) || module.IsPseudoVersion(v) {
		return "0.0.0"
	}
	canonical := semver.Canonical(v)
	if pre := semver.Prerelease(canonical); pre != "" {
		canonical = strings.TrimSuffix(canonical, pre)
	}
	return strings.TrimPrefix(canonical, "v")
}

type latestResponse struct {
	Version string `json:"Version"`
	Time    string `json:"Time"`
}

var _ integrations.Adapter = (*Adapter)(nil)

package arxiv

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/httputil"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

const (
	// DefaultBaseURL is the arXiv query API.
	DefaultBaseURL = "https://export.arxiv.org/api/query"
	// DefaultCoverPrefix is the public path under which cover images are served.
	DefaultCoverPrefix = "/covers"
)

// arXiv asks API clients to wait three seconds between requests.
var limits = ratelimit.Limits{PerMinute: 10, MinInterval: 3 * time.Second}

// coverRetry waits out the adapter's own spacing before the PDF download.
var coverRetry = httputil.Policy{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

// Adapter reads paper metadata from the arXiv Atom API. When a covers
// directory is configured, it also renders the first page of the PDF as a
// cover image.
type Adapter struct {
	baseURL     string
	coversDir   string
	coverPrefix string
	renderer    Renderer
	logger      *log.Logger
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL points the adapter at another query endpoint.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimSuffix(u, "/") }
}

// WithCovers enables cover rendering into dir. Cover images are referenced
// as prefix/{arxivId}.png.
func WithCovers(dir, prefix string, r Renderer) Option {
	return func(a *Adapter) {
		a.coversDir = dir
		if prefix != "" {
			a.coverPrefix = prefix
		}
		a.renderer = r
	}
}

// WithLogger sets the logger for non-fatal cover failures.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// New creates an arXiv adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: DefaultBaseURL, coverPrefix: DefaultCoverPrefix, logger: log.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by an arXiv adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	if opts.Logger != nil {
		adapterOpts = append([]Option{WithLogger(opts.Logger)}, adapterOpts...)
	}
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "arxiv" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return limits }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch queries id_list={id} and maps the single Atom entry. Cover
// rendering failures are logged and leave CoverImage empty.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	id = NormalizeID(id)
	if err := cerrors.ValidateArxivID(id); err != nil {
		return nil, err
	}

	body, err := r.GetText(ctx, a.baseURL+"?id_list="+url.QueryEscape(id)+"&max_results=1")
	if err != nil {
		return nil, err
	}
	feed, err := (&atom.Parser{}).Parse(strings.NewReader(body))
	if err != nil {
		return nil, &cerrors.ParseError{Source: "arxiv", Err: err}
	}

	entry := firstPaper(feed)
	if entry == nil {
		return nil, fmt.Errorf("arxiv paper %s: %w", id, cerrors.ErrNotFound)
	}

	md := entryMetadata(entry)
	if md.PDFURL == "" {
		md.PDFURL = "https://arxiv.org/pdf/" + id
	}
	if a.coversDir != "" && a.renderer != nil {
		cover, err := a.cover(ctx, r, id, md.PDFURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("cover rendering failed", "arxiv", id, "err", err)
		}
		md.CoverImage = cover
	}
	return md, nil
}

// firstPaper skips the error entries arXiv returns for malformed ids.
func firstPaper(feed *atom.Feed) *atom.Entry {
	for _, e := range feed.Entries {
		if strings.Contains(e.ID, "/api/errors") || strings.TrimSpace(e.Title) == "Error" {
			continue
		}
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		return e
	}
	return nil
}

func entryMetadata(e *atom.Entry) *integrations.Metadata {
	md := &integrations.Metadata{
		Title:     collapse(e.Title),
		Abstract:  collapse(e.Summary),
		Published: e.PublishedParsed,
	}
	for _, p := range e.Authors {
		if name := strings.TrimSpace(p.Name); name != "" {
			md.Authors = append(md.Authors, name)
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			md.Categories = append(md.Categories, c.Term)
		}
	}
	for _, l := range e.Links {
		switch {
		case l.Title == "pdf" || l.Type == "application/pdf":
			md.PDFURL = l.Href
		case l.Rel == "alternate" || (l.Rel == "" && md.URL == ""):
			md.URL = l.Href
		}
	}

	md.Venue = extValue(e.Extensions, "journal_ref", "")
	if md.Venue == "" {
		md.Venue = extValue(e.Extensions, "primary_category", "term")
	}
	if md.Venue == "" && len(md.Categories) > 0 {
		md.Venue = md.Categories[0]
	}
	return md
}

// extValue finds an arxiv: extension element by name regardless of the
// prefix the document bound to the namespace. With attr set, the
// attribute value is returned instead of the text.
func extValue(exts ext.Extensions, name, attr string) string {
	for _, elems := range exts {
		for _, e := range elems[name] {
			v := e.Value
			if attr != "" {
				v = e.Attrs[attr]
			}
			if v = collapse(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func (a *Adapter) cover(ctx context.Context, r integrations.Requester, id, pdfURL string) (string, error) {
	name := strings.ReplaceAll(id, "/", "_") + ".png"
	dst := filepath.Join(a.coversDir, name)
	public := path.Join(a.coverPrefix, name)

	if _, err := os.Stat(dst); err == nil {
		return public, nil
	}
	if err := os.MkdirAll(a.coversDir, 0o755); err != nil {
		return "", err
	}

	var pdf []byte
	err := httputil.Retry(ctx, coverRetry, func() error {
		var err error
		pdf, err = r.Download(ctx, pdfURL)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", pdfURL, err)
	}
	if err := a.renderer.Render(ctx, pdf, dst); err != nil {
		return "", err
	}
	return public, nil
}

// NormalizeID strips "arXiv:" prefixes and abs/pdf URLs down to the bare id.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	for _, prefix := range []string{"https://arxiv.org/abs/", "http://arxiv.org/abs/", "https://arxiv.org/pdf/", "http://arxiv.org/pdf/"} {
		id = strings.TrimPrefix(id, prefix)
	}
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	return strings.TrimSuffix(id, ".pdf")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var _ integrations.Adapter = (*Adapter)(nil)

package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

// maxTextLen bounds descriptions taken from body text.
const maxTextLen = 300

// Adapter scrapes title, description, image, site name and favicon from
// an HTML page's meta tags. Identifiers are page URLs.
type Adapter struct {
	screenshotURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithScreenshotService sets a URL template used as image when a page has
// none. "{url}" in the template is replaced by the escaped page URL. An
// empty template disables the fallback.
func WithScreenshotService(template string) Option {
	return func(a *Adapter) { a.screenshotURL = template }
}

// New creates a scrape adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a scrape adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "scrape" }
func (a *Adapter) CacheTTL() time.Duration     { return 24 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 30} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch downloads the page and extracts its metadata.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	pageURL := strings.TrimSpace(id)
	if err := cerrors.ValidateURL(pageURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "page url %q", pageURL)
	}

	body, err := r.GetPage(ctx, pageURL)
	if err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("page %s: %w", pageURL, err)
		}
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &cerrors.ParseError{Source: "scrape", Err: err}
	}

	md := Extract(doc, base)
	if md.Image == "" && a.screenshotURL != "" {
		md.Image = strings.ReplaceAll(a.screenshotURL, "{url}", url.QueryEscape(pageURL))
	}
	return md, nil
}

// Extract reads page metadata from doc. Each field falls back from Open
// Graph tags to Twitter or plain meta tags to the page's own markup.
// Relative image and favicon URLs are resolved against base.
func Extract(doc *goquery.Document, base *url.URL) *integrations.Metadata {
	md := &integrations.Metadata{
		URL: base.String(),
		Title: first(
			meta(doc, "property", "og:title"),
			meta(doc, "name", "twitter:title"),
			doc.Find("title").First().Text(),
			doc.Find("h1").First().Text(),
		),
		Description: first(
			meta(doc, "property", "og:description"),
			meta(doc, "name", "twitter:description"),
			meta(doc, "name", "description"),
			truncate(doc.Find("p").First().Text(), maxTextLen),
		),
		Image: resolve(base, first(
			meta(doc, "property", "og:image"),
			meta(doc, "property", "og:image:url"),
			meta(doc, "name", "twitter:image"),
			meta(doc, "name", "twitter:image:src"),
		)),
		SiteName: first(
			meta(doc, "property", "og:site_name"),
			meta(doc, "name", "application-name"),
			strings.TrimPrefix(base.Hostname(), "www."),
		),
	}
	if canonical := first(meta(doc, "property", "og:url"), attr(doc, `link[rel="canonical"]`, "href")); canonical != "" {
		md.URL = resolve(base, canonical)
	}

	md.Favicon = resolve(base, first(
		attr(doc, `link[rel="icon"]`, "href"),
		attr(doc, `link[rel="shortcut icon"]`, "href"),
		attr(doc, `link[rel="apple-touch-icon"]`, "href"),
	))
	if md.Favicon == "" {
		md.Favicon = resolve(base, "/favicon.ico")
	}
	return md
}

func meta(doc *goquery.Document, key, value string) string {
	return attr(doc, fmt.Sprintf(`meta[%s=%q]`, key, value), "content")
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.Join(strings.Fields(v), " "); v != "" {
			return v
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

var _ integrations.Adapter = (*Adapter)(nil)

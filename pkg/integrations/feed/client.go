package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

// Publishing frequencies inferred from item dates.
const (
	Daily     = "daily"
	Weekly    = "weekly"
	Biweekly  = "biweekly"
	Monthly   = "monthly"
	Irregular = "irregular"
)

// Thresholds maps a mean gap between recent items to a frequency. Gaps
// above the last bound are [Irregular].
type Thresholds struct {
	Daily, Weekly, Biweekly, Monthly time.Duration
}

// DefaultThresholds are 2, 10, 20 and 45 days.
var DefaultThresholds = Thresholds{
	Daily:    2 * 24 * time.Hour,
	Weekly:   10 * 24 * time.Hour,
	Biweekly: 20 * 24 * time.Hour,
	Monthly:  45 * 24 * time.Hour,
}

// Adapter reads RSS 2.0 and Atom feeds. Identifiers are a feed URL,
// optionally followed by "#" and the URL of one item to locate.
type Adapter struct {
	thresholds Thresholds
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithThresholds replaces [DefaultThresholds].
func WithThresholds(t Thresholds) Option {
	return func(a *Adapter) { a.thresholds = t }
}

// New creates a feed adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{thresholds: DefaultThresholds}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a feed adapter.
func NewClient(opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "feed" }
func (a *Adapter) CacheTTL() time.Duration     { return time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 60} }
func (a *Adapter) Headers() map[string]string { return nil }

// ID builds a feed identifier. An empty target selects the first item.
func ID(feedURL, target string) string {
	if target == "" {
		return feedURL
	}
	return feedURL + "#" + target
}

// SplitID is the inverse of [ID].
func SplitID(id string) (feedURL, target string) {
	if i := strings.Index(id, "#http"); i >= 0 {
		return id[:i], id[i+1:]
	}
	return id, ""
}

// Fetch downloads and parses the feed.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	feedURL, target := SplitID(strings.TrimSpace(id))
	if err := cerrors.ValidateURL(feedURL); err != nil {
		return nil, err
	}

	body, err := r.GetText(ctx, feedURL)
	if err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("feed %s: %w", feedURL, err)
		}
		return nil, err
	}
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, &cerrors.ParseError{Source: "feed", Err: err}
	}

	md := &integrations.Metadata{
		Title:       feed.Title,
		FeedTitle:   feed.Title,
		Description: feed.Description,
		URL:         feed.Link,
		Author:      feedAuthor(feed),
		Image:       feedImage(feed),
		ItemCount:   len(feed.Items),
		Frequency:   a.frequency(feed.Items),
	}
	if item := locate(feed.Items, target); item != nil {
		md.LatestItem = &integrations.FeedItem{
			Title:     strings.TrimSpace(item.Title),
			URL:       item.Link,
			Published: published(item),
		}
		md.Published = md.LatestItem.Published
	}
	return md, nil
}

func feedAuthor(f *gofeed.Feed) string {
	if f.Author != nil && f.Author.Name != "" {
		return f.Author.Name
	}
	if len(f.Authors) > 0 && f.Authors[0] != nil && f.Authors[0].Name != "" {
		return f.Authors[0].Name
	}
	if f.ITunesExt != nil && f.ITunesExt.Author != "" {
		return f.ITunesExt.Author
	}
	return ""
}

func feedImage(f *gofeed.Feed) string {
	if f.Image != nil && f.Image.URL != "" {
		return f.Image.URL
	}
	if f.ITunesExt != nil {
		return f.ITunesExt.Image
	}
	return ""
}

func published(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// locate returns the item whose link matches target, else the feed's
// first item.
func locate(items []*gofeed.Item, target string) *gofeed.Item {
	if len(items) == 0 {
		return nil
	}
	if target != "" {
		want := normalizeLink(target)
		for _, item := range items {
			if normalizeLink(item.Link) == want {
				return item
			}
		}
	}
	return items[0]
}

// byDate returns the dated items, newest first.
func byDate(items []*gofeed.Item) []*gofeed.Item {
	dated := make([]*gofeed.Item, 0, len(items))
	for _, item := range items {
		if published(item) != nil {
			dated = append(dated, item)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return published(dated[i]).After(*published(dated[j]))
	})
	return dated
}

// frequency classifies the mean gap between the three most recent items.
func (a *Adapter) frequency(items []*gofeed.Item) string {
	dated := byDate(items)
	if len(dated) < 2 {
		return ""
	}
	if len(dated) > 3 {
		dated = dated[:3]
	}
	span := published(dated[0]).Sub(*published(dated[len(dated)-1]))
	mean := span / time.Duration(len(dated)-1)

	switch t := a.thresholds; {
	case mean <= t.Daily:
		return Daily
	case mean <= t.Weekly:
		return Weekly
	case mean <= t.Biweekly:
		return Biweekly
	case mean <= t.Monthly:
		return Monthly
	}
	return Irregular
}

// normalizeLink compares links ignoring scheme, www, trailing slash and
// fragment.
func normalizeLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSuffix(raw, "/")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	s := host + strings.TrimSuffix(u.Path, "/")
	if u.RawQuery != "" {
		s += "?" + u.RawQuery
	}
	return s
}

var _ integrations.Adapter = (*Adapter)(nil)

package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

const (
	// DefaultAPIURL is the YouTube Data API v3 root.
	DefaultAPIURL = "https://www.googleapis.com/youtube/v3"
	// DefaultOEmbedURL is the keyless oEmbed endpoint.
	DefaultOEmbedURL = "https://www.youtube.com/oembed"
)

// Adapter reads video metadata from the YouTube Data API, or from oEmbed
// when no API key is configured.
type Adapter struct {
	apiKey    string
	apiURL    string
	oembedURL string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithAPIURL points the adapter at another Data API root.
func WithAPIURL(u string) Option {
	return func(a *Adapter) { a.apiURL = strings.TrimSuffix(u, "/") }
}

// WithOEmbedURL points the adapter at another oEmbed endpoint.
func WithOEmbedURL(u string) Option {
	return func(a *Adapter) { a.oembedURL = u }
}

// New creates a YouTube adapter. An empty apiKey selects the oEmbed
// fallback, which has no statistics or duration.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{apiKey: apiKey, apiURL: DefaultAPIURL, oembedURL: DefaultOEmbedURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewClient creates a source client backed by a YouTube adapter.
func NewClient(apiKey string, opts integrations.Options, adapterOpts ...Option) *integrations.Client {
	return integrations.NewClient(New(apiKey, adapterOpts...), opts)
}

func (a *Adapter) Name() string                { return "youtube" }
func (a *Adapter) CacheTTL() time.Duration     { return 6 * time.Hour }
func (a *Adapter) Limits() ratelimit.Limits    { return ratelimit.Limits{PerMinute: 60, PerHour: 1000} }
func (a *Adapter) Headers() map[string]string { return nil }

// Fetch reads one video by id.
func (a *Adapter) Fetch(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	id = strings.TrimSpace(id)
	if err := cerrors.ValidateVideoID(id); err != nil {
		return nil, err
	}
	if a.apiKey == "" {
		return a.fetchOEmbed(ctx, r, id)
	}
	return a.fetchAPI(ctx, r, id)
}

func (a *Adapter) fetchAPI(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	q := url.Values{}
	q.Set("part", "snippet,contentDetails,statistics")
	q.Set("id", id)
	q.Set("key", a.apiKey)

	var data videosResponse
	if err := r.GetJSON(ctx, a.apiURL+"/videos?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("youtube video %s: %w", id, cerrors.ErrNotFound)
	}

	v := data.Items[0]
	views, _ := strconv.ParseInt(v.Statistics.ViewCount, 10, 64)
	likes, _ := strconv.ParseInt(v.Statistics.LikeCount, 10, 64)

	return &integrations.Metadata{
		Title:       v.Snippet.Title,
		Description: v.Snippet.Description,
		URL:         WatchURL(id),
		Channel:     v.Snippet.ChannelTitle,
		Duration:    FormatDuration(v.ContentDetails.Duration),
		Views:       views,
		Likes:       likes,
		Thumbnail:   bestThumbnail(v.Snippet.Thumbnails),
		Published:   integrations.ParseTime(v.Snippet.PublishedAt),
		Topics:      v.Snippet.Tags,
	}, nil
}

func (a *Adapter) fetchOEmbed(ctx context.Context, r integrations.Requester, id string) (*integrations.Metadata, error) {
	q := url.Values{}
	q.Set("url", WatchURL(id))
	q.Set("format", "json")

	var data oembedResponse
	if err := r.GetJSON(ctx, a.oembedURL+"?"+q.Encode(), &data); err != nil {
		// oEmbed answers 401/403 for private or embedding-disabled videos.
		if code := cerrors.StatusCode(err); code == 401 || code == 403 || errors.Is(err, cerrors.ErrNotFound) {
			return nil, fmt.Errorf("youtube video %s: %w", id, err)
		}
		return nil, err
	}
	return &integrations.Metadata{
		Title:     data.Title,
		URL:       WatchURL(id),
		Channel:   data.AuthorName,
		Thumbnail: data.ThumbnailURL,
	}, nil
}

// WatchURL returns the canonical watch page of a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func bestThumbnail(t thumbnails) string {
	for _, th := range []thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th.URL != "" {
			return th.URL
		}
	}
	return ""
}

// FormatDuration turns an ISO 8601 duration such as PT1H2M3S into
// "1:02:03", or "4:05" below an hour. Unparseable input is returned as is.
func FormatDuration(iso string) string {
	d, ok := parseISODuration(iso)
	if !ok {
		return iso
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func parseISODuration(iso string) (time.Duration, bool) {
	rest, ok := strings.CutPrefix(iso, "P")
	if !ok || rest == "" {
		return 0, false
	}
	var d time.Duration
	inTime := false
	num := ""
	for _, c := range rest {
		switch {
		case c == 'T':
			inTime = true
		case c >= '0' && c <= '9':
			num += string(c)
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, false
			}
			num = ""
			switch {
			case c == 'D' && !inTime:
				d += time.Duration(n) * 24 * time.Hour
			case c == 'H' && inTime:
				d += time.Duration(n) * time.Hour
			case c == 'M' && inTime:
				d += time.Duration(n) * time.Minute
			case c == 'S' && inTime:
				d += time.Duration(n) * time.Second
			default:
				return 0, false
			}
		}
	}
	return d, num == ""
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string     `json:"title"`
			Description  string     `json:"description"`
			ChannelTitle string     `json:"channelTitle"`
			PublishedAt  string     `json:"publishedAt"`
			Tags         []string   `json:"tags"`
			Thumbnails   thumbnails `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type thumbnails struct {
	Default  thumbnail `json:"default"`
	Medium   thumbnail `json:"medium"`
	High     thumbnail `json:"high"`
	Standard thumbnail `json:"standard"`
	Maxres   thumbnail `json:"maxres"`
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

var _ integrations.Adapter = (*Adapter)(nil)

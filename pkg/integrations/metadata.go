package integrations

import "time"

// Metadata is the normalized result of a source fetch. Every adapter fills
// the subset of fields its upstream provides; the rest stay zero.
type Metadata struct {
	Source    string    `json:"source"`
	ID        string    `json:"id"`
	FetchedAt time.Time `json:"fetchedAt"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`

	// Repository and package fields.
	Homepage         string     `json:"homepage,omitempty"`
	RepositoryURL    string     `json:"repositoryUrl,omitempty"`
	DocumentationURL string     `json:"documentationUrl,omitempty"`
	License          string     `json:"license,omitempty"`
	Topics           []string   `json:"topics,omitempty"`
	Languages        []string   `json:"languages,omitempty"`
	Stars            int        `json:"stars,omitempty"`
	Forks            int        `json:"forks,omitempty"`
	Watchers         int        `json:"watchers,omitempty"`
	OpenIssues       int        `json:"openIssues,omitempty"`
	Archived         bool       `json:"archived,omitempty"`
	LastCommit       *time.Time `json:"lastCommit,omitempty"`
	Version          string     `json:"version,omitempty"`
	Downloads        int64      `json:"downloads,omitempty"`

	// Paper fields.
	Authors    []string   `json:"authors,omitempty"`
	Abstract   string     `json:"abstract,omitempty"`
	Venue      string     `json:"venue,omitempty"`
	PDFURL     string     `json:"pdfUrl,omitempty"`
	CoverImage string     `json:"coverImage,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Published  *time.Time `json:"published,omitempty"`

	// Video fields.
	Channel   string `json:"channel,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Views     int64  `json:"views,omitempty"`
	Likes     int64  `json:"likes,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`

	// Feed fields.
	Author     string    `json:"author,omitempty"`
	FeedTitle  string    `json:"feedTitle,omitempty"`
	Frequency  string    `json:"frequency,omitempty"`
	ItemCount  int       `json:"itemCount,omitempty"`
	LatestItem *FeedItem `json:"latestItem,omitempty"`

	// Page fields.
	Image    string `json:"image,omitempty"`
	SiteName string `json:"siteName,omitempty"`
	Favicon  string `json:"favicon,omitempty"`
}

// FeedItem is a single entry of an RSS or Atom feed.
type FeedItem struct {
	Title     string     `json:"title,omitempty"`
	URL       string     `json:"url,omitempty"`
	Published *time.Time `json:"published,omitempty"`
}

// TimePtr returns a pointer to t, or nil for the zero time.
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ParseTime parses an RFC 3339 timestamp, returning nil when s is empty or
// malformed.
func ParseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

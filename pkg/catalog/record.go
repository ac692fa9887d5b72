package catalog

import (
	"time"

	"github.com/matzehuels/curator/pkg/integrations"
)

// Kind is the record discriminant stored in the "type" field.
type Kind string

const (
	KindRepository    Kind = "repository"
	KindLibrary       Kind = "library"
	KindPaper         Kind = "paper"
	KindVideo         Kind = "video"
	KindPodcast       Kind = "podcast"
	KindNewsletter    Kind = "newsletter"
	KindArticle       Kind = "article"
	KindBook          Kind = "book"
	KindTool          Kind = "tool"
	KindDocumentation Kind = "documentation"
	KindCommunity     Kind = "community"
	KindConference    Kind = "conference"
	KindCheatsheet    Kind = "cheatsheet"
	KindCertification Kind = "certification"
)

// Kinds lists every record kind in catalog order.
var Kinds = []Kind{
	KindRepository, KindLibrary, KindPaper, KindVideo,
	KindPodcast, KindNewsletter, KindArticle, KindBook,
	KindTool, KindDocumentation, KindCommunity, KindConference,
	KindCheatsheet, KindCertification,
}

// Record is implemented by exactly one struct per [Kind]. The set is
// closed: only types in this package can satisfy it.
type Record interface {
	// Common returns the fields every record shares.
	Common() *Base
	sealed()
}

// Base holds the user-authored fields shared by all kinds. Enrichment
// never modifies them, except that Tags may grow by union.
type Base struct {
	ID          string   `json:"id"`
	Type        Kind     `json:"type"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	DateAdded   string   `json:"dateAdded,omitempty"`
}

// Common implements [Record].
func (b *Base) Common() *Base { return b }

func (b *Base) sealed() {}

// RepoStats are the fields refreshed from GitHub or GitLab.
type RepoStats struct {
	Stars      int        `json:"stars,omitempty"`
	Forks      int        `json:"forks,omitempty"`
	Watchers   int        `json:"watchers,omitempty"`
	OpenIssues int        `json:"openIssues,omitempty"`
	License    string     `json:"license,omitempty"`
	Languages  []string   `json:"languages,omitempty"`
	Archived   bool       `json:"archived,omitempty"`
	LastCommit *time.Time `json:"lastCommit,omitempty"`
	Homepage   string     `json:"homepage,omitempty"`
}

// Repository is a source code repository.
type Repository struct {
	Base
	RepositoryURL string   `json:"repositoryUrl,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	RepoStats
}

// Library is a package published to a registry. It is enriched from the
// registry when Registry and PackageName are set, otherwise from its
// repository.
type Library struct {
	Base
	RepositoryURL    string   `json:"repositoryUrl,omitempty"`
	Registry         string   `json:"registry,omitempty"`
	PackageName      string   `json:"packageName,omitempty"`
	Topics           []string `json:"topics,omitempty"`
	Version          string   `json:"version,omitempty"`
	Downloads        int64    `json:"downloads,omitempty"`
	DocumentationURL string   `json:"documentationUrl,omitempty"`
	RepoStats
}

// Paper is an arXiv preprint.
type Paper struct {
	Base
	ArxivID    string     `json:"arxivId,omitempty"`
	Topics     []string   `json:"topics,omitempty"`
	Title      string     `json:"title,omitempty"`
	Authors    []string   `json:"authors,omitempty"`
	Abstract   string     `json:"abstract,omitempty"`
	Venue      string     `json:"venue,omitempty"`
	PDFURL     string     `json:"pdfUrl,omitempty"`
	CoverImage string     `json:"coverImage,omitempty"`
	Published  *time.Time `json:"published,omitempty"`
	Categories []string   `json:"categories,omitempty"`
}

// Video is a YouTube video.
type Video struct {
	Base
	VideoID   string     `json:"videoId,omitempty"`
	Channel   string     `json:"channel,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Views     int64      `json:"views,omitempty"`
	Likes     int64      `json:"likes,omitempty"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	Published *time.Time `json:"published,omitempty"`
}

// FeedInfo are the fields refreshed from an RSS or Atom feed.
type FeedInfo struct {
	Author     string                 `json:"author,omitempty"`
	Image      string                 `json:"image,omitempty"`
	FeedTitle  string                 `json:"feedTitle,omitempty"`
	Frequency  string                 `json:"frequency,omitempty"`
	ItemCount  int                    `json:"itemCount,omitempty"`
	LatestItem *integrations.FeedItem `json:"latestItem,omitempty"`
	Published  *time.Time             `json:"published,omitempty"`
}

// Podcast is an audio show with an RSS feed.
type Podcast struct {
	Base
	RSSURL string `json:"rssUrl,omitempty"`
	URL    string `json:"url,omitempty"`
	FeedInfo
}

// Newsletter is a periodical with an RSS or Atom feed.
type Newsletter struct {
	Base
	RSSURL string `json:"rssUrl,omitempty"`
	URL    string `json:"url,omitempty"`
	FeedInfo
}

// Article is a single post. URL locates the matching item in the feed at
// RSSURL.
type Article struct {
	Base
	RSSURL string `json:"rssUrl,omitempty"`
	URL    string `json:"url,omitempty"`
	FeedInfo
}

// PageMetadata is what a page's meta tags say about it.
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
}

// Page holds the scraped metadata of the kinds that only have a web page.
type Page struct {
	Metadata *PageMetadata `json:"metadata,omitempty"`
}

// Tool is a piece of software identified by its website.
type Tool struct {
	Base
	ToolURL string `json:"toolUrl,omitempty"`
	Page
}

// Book is a book with a landing page.
type Book struct {
	Base
	URL string `json:"url,omitempty"`
	Page
}

// Documentation is a documentation site.
type Documentation struct {
	Base
	URL string `json:"url,omitempty"`
	Page
}

// Community is a forum, chat or user group.
type Community struct {
	Base
	URL string `json:"url,omitempty"`
	Page
}

// Conference is an event with a website.
type Conference struct {
	Base
	URL string `json:"url,omitempty"`
	Page
}

// Cheatsheet is a quick reference page.
type Cheatsheet struct {
	Base
	URL string `json:"url,omitempty"`
	Page
}

// Certification is a certification program.
type Certification struct {
	Base
	URL string `json:"url,omitempty"`
	Page
}

// New returns an empty record of kind k, or nil for an unknown kind.
func New(k Kind) Record {
	var r Record
	switch k {
	case KindRepository:
		r = &Repository{}
	case KindLibrary:
		r = &Library{}
	case KindPaper:
		r = &Paper{}
	case KindVideo:
		r = &Video{}
	case KindPodcast:
		r = &Podcast{}
	case KindNewsletter:
		r = &Newsletter{}
	case KindArticle:
		r = &Article{}
	case KindBook:
		r = &Book{}
	case KindTool:
		r = &Tool{}
	case KindDocumentation:
		r = &Documentation{}
	case KindCommunity:
		r = &Community{}
	case KindConference:
		r = &Conference{}
	case KindCheatsheet:
		r = &Cheatsheet{}
	case KindCertification:
		r = &Certification{}
	default:
		return nil
	}
	r.Common().Type = k
	return r
}

// PageURL returns the URL of a page-only record, or "" for other kinds.
func PageURL(r Record) string {
	switch rec := r.(type) {
	case *Tool:
		return rec.ToolURL
	case *Book:
		return rec.URL
	case *Documentation:
		return rec.URL
	case *Community:
		return rec.URL
	case *Conference:
		return rec.URL
	case *Cheatsheet:
		return rec.URL
	case *Certification:
		return rec.URL
	}
	return ""
}

// PageOf returns the scraped metadata holder of a page-only record.
func PageOf(r Record) (*Page, bool) {
	switch rec := r.(type) {
	case *Tool:
		return &rec.Page, true
	case *Book:
		return &rec.Page, true
	case *Documentation:
		return &rec.Page, true
	case *Community:
		return &rec.Page, true
	case *Conference:
		return &rec.Page, true
	case *Cheatsheet:
		return &rec.Page, true
	case *Certification:
		return &rec.Page, true
	}
	return nil, false
}

// FeedOf returns the feed URL and feed fields of a feed-backed record.
// target is the URL of the item to locate, empty unless r is an article.
func FeedOf(r Record) (rssURL, target string, info *FeedInfo, ok bool) {
	switch rec := r.(type) {
	case *Podcast:
		return rec.RSSURL, "", &rec.FeedInfo, true
	case *Newsletter:
		return rec.RSSURL, "", &rec.FeedInfo, true
	case *Article:
		return rec.RSSURL, rec.URL, &rec.FeedInfo, true
	}
	return "", "", nil, false
}

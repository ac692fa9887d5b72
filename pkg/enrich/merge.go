package enrich

import (
	"slices"
	"time"

	"github.com/matzehuels/curator/pkg/catalog"
	"github.com/matzehuels/curator/pkg/integrations"
)

// mergeResult reports what a merge changed.
type mergeResult struct {
	changed bool
	// image is true when a page record's image came from this fetch.
	image bool
}

// Merge overwrites the enrichment-owned fields of rec with md and unions
// topics. Empty upstream values never clear existing ones. It reports
// whether rec changed.
func Merge(rec catalog.Record, md *integrations.Metadata) bool {
	return merge(rec, md, true).changed
}

// merge is [Merge] with control over page images, which belong to the
// screenshots refresh class.
func merge(rec catalog.Record, md *integrations.Metadata, images bool) mergeResult {
	var m merger
	switch r := rec.(type) {
	case *catalog.Repository:
		m.repoStats(&r.RepoStats, md)
		m.union(&r.Topics, md.Topics)
	case *catalog.Library:
		if md.Source == "github" || md.Source == "gitlab" {
			m.repoStats(&r.RepoStats, md)
		} else {
			m.str(&r.Version, md.Version)
			m.str(&r.License, md.License)
			m.str(&r.Homepage, md.Homepage)
			m.str(&r.DocumentationURL, md.DocumentationURL)
			m.nonzero64(&r.Downloads, md.Downloads)
			if r.RepositoryURL == "" {
				m.str(&r.RepositoryURL, md.RepositoryURL)
			}
		}
		m.union(&r.Topics, md.Topics)
	case *catalog.Paper:
		m.str(&r.Title, md.Title)
		m.list(&r.Authors, md.Authors)
		m.str(&r.Abstract, md.Abstract)
		m.str(&r.Venue, md.Venue)
		m.str(&r.PDFURL, md.PDFURL)
		m.str(&r.CoverImage, md.CoverImage)
		m.time(&r.Published, md.Published)
		m.list(&r.Categories, md.Categories)
	case *catalog.Video:
		m.str(&r.Channel, md.Channel)
		m.str(&r.Duration, md.Duration)
		m.nonzero64(&r.Views, md.Views)
		m.nonzero64(&r.Likes, md.Likes)
		m.str(&r.Thumbnail, md.Thumbnail)
		m.time(&r.Published, md.Published)
	case *catalog.Podcast:
		m.feed(&r.FeedInfo, md)
	case *catalog.Newsletter:
		m.feed(&r.FeedInfo, md)
	case *catalog.Article:
		m.feed(&r.FeedInfo, md)
	case *catalog.Tool:
		m.page(&r.Page, md, images)
	case *catalog.Book:
		m.page(&r.Page, md, images)
	case *catalog.Documentation:
		m.page(&r.Page, md, images)
	case *catalog.Community:
		m.page(&r.Page, md, images)
	case *catalog.Conference:
		m.page(&r.Page, md, images)
	case *catalog.Cheatsheet:
		m.page(&r.Page, md, images)
	case *catalog.Certification:
		m.page(&r.Page, md, images)
	}
	return m.result
}

type merger struct {
	result mergeResult
}

func (m *merger) repoStats(dst *catalog.RepoStats, md *integrations.Metadata) {
	m.int(&dst.Stars, md.Stars)
	m.int(&dst.Forks, md.Forks)
	m.int(&dst.Watchers, md.Watchers)
	m.int(&dst.OpenIssues, md.OpenIssues)
	m.str(&dst.License, md.License)
	m.list(&dst.Languages, md.Languages)
	if dst.Archived != md.Archived {
		dst.Archived = md.Archived
		m.result.changed = true
	}
	m.time(&dst.LastCommit, md.LastCommit)
	m.str(&dst.Homepage, md.Homepage)
}

func (m *merger) feed(dst *catalog.FeedInfo, md *integrations.Metadata) {
	m.str(&dst.Author, md.Author)
	m.str(&dst.Image, md.Image)
	m.str(&dst.FeedTitle, md.FeedTitle)
	m.str(&dst.Frequency, md.Frequency)
	if md.ItemCount > 0 && dst.ItemCount != md.ItemCount {
		dst.ItemCount = md.ItemCount
		m.result.changed = true
	}
	if md.LatestItem != nil && !sameItem(dst.LatestItem, md.LatestItem) {
		item := *md.LatestItem
		dst.LatestItem = &item
		m.result.changed = true
	}
	m.time(&dst.Published, md.Published)
}

func (m *merger) page(dst *catalog.Page, md *integrations.Metadata, images bool) {
	meta := dst.Metadata
	if meta == nil {
		meta = &catalog.PageMetadata{}
	}
	m.str(&meta.Title, md.Title)
	m.str(&meta.Description, md.Description)
	m.str(&meta.SiteName, md.SiteName)
	m.str(&meta.Favicon, md.Favicon)
	if (images || meta.Image == "") && md.Image != "" && meta.Image != md.Image {
		meta.Image = md.Image
		m.result.changed = true
		m.result.image = true
	}
	if dst.Metadata == nil && *meta != (catalog.PageMetadata{}) {
		dst.Metadata = meta
	}
}

func (m *merger) str(dst *string, v string) {
	if v != "" && *dst != v {
		*dst = v
		m.result.changed = true
	}
}

func (m *merger) int(dst *int, v int) {
	if *dst != v {
		*dst = v
		m.result.changed = true
	}
}

func (m *merger) nonzero64(dst *int64, v int64) {
	if v != 0 && *dst != v {
		*dst = v
		m.result.changed = true
	}
}

func (m *merger) list(dst *[]string, v []string) {
	if len(v) > 0 && !slices.Equal(*dst, v) {
		*dst = slices.Clone(v)
		m.result.changed = true
	}
}

func (m *merger) time(dst **time.Time, v *time.Time) {
	if v == nil || (*dst != nil && (*dst).Equal(*v)) {
		return
	}
	t := *v
	*dst = &t
	m.result.changed = true
}

func (m *merger) union(dst *[]string, v []string) {
	if merged, grew := Union(*dst, v); grew {
		*dst = merged
		m.result.changed = true
	}
}

// Union returns existing followed by the values of incoming it does not
// already hold, without duplicates. grew reports whether anything was
// added. Existing order is kept.
func Union(existing, incoming []string) (merged []string, grew bool) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged = make([]string, 0, len(existing)+len(incoming))
	for _, s := range existing {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		merged = append(merged, s)
	}
	for _, s := range incoming {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		merged = append(merged, s)
		grew = true
	}
	return merged, grew
}

func sameItem(a, b *integrations.FeedItem) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Title != b.Title || a.URL != b.URL {
		return false
	}
	if a.Published == nil || b.Published == nil {
		return a.Published == b.Published
	}
	return a.Published.Equal(*b.Published)
}

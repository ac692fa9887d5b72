// Package feed provides a source adapter for RSS 2.0 and Atom feeds.
//
// # Overview
//
// Podcast, newsletter and article records are enriched from their feed,
// parsed with gofeed's universal parser. The adapter reports the feed
// title, author, image, item count, the first item (or the item matching
// a target URL) and an inferred publishing frequency.
//
// # Identifiers
//
// An identifier is the feed URL, optionally followed by "#" and the URL of
// the item to locate: see [ID] and [SplitID]. Links are compared ignoring
// scheme, "www." and trailing slashes. When no item matches, the feed's
// first item is used.
//
// # Frequency
//
// The mean gap between the three most recent dated items is classified
// against [Thresholds]: daily, weekly, biweekly, monthly or irregular.
package feed

// Package enrich refreshes catalog records from their upstream sources.
//
// An [Orchestrator] loads every record from a [catalog.Store], asks the
// refresh policy whether a pass is due, routes each record to one source
// client, fetches in fixed-size concurrent batches and merges the result
// back into the record. Records that changed are saved immediately, so an
// interrupted run keeps the progress of every finished batch.
//
// # Routing
//
// Routing is a type switch over the closed set of record kinds:
//
//	repository, library     -> github / gitlab by repositoryUrl host
//	library with registry   -> npm, pypi, crates, rubygems, packagist, maven, go
//	paper                   -> arxiv by arxivId
//	video                   -> youtube by videoId
//	podcast, newsletter     -> feed by rssUrl
//	article                 -> feed by rssUrl, item located by url
//	tool and page kinds     -> scrape by toolUrl / url
//
// A record without its identifier, or whose client is not configured, is
// skipped without any network call.
//
// # Merging
//
// Only enrichment-owned fields are written. Empty upstream values never
// clear a field, topics grow by order-stable union, and user-authored
// fields are left alone. Running the same merge twice reports no change
// the second time.
package enrich

// Package integrations provides the generic source client used to enrich
// catalog records from upstream APIs and feeds.
//
// # Overview
//
// Each upstream has its own subpackage implementing [Adapter]:
//
//   - [github], [gitlab]: repository metrics
//   - [npm], [pypi], [crates], [rubygems], [packagist], [maven], [goproxy]:
//     package registries
//   - [arxiv]: papers, with optional cover rendering
//   - [youtube]: videos
//   - [feed]: RSS and Atom feeds
//   - [scrape]: HTML meta tags
//
// An adapter only knows its wire format. [Client] wraps one adapter with
// the shared machinery:
//
//	cache -> rate limit -> HTTP under retry -> parse -> write-through
//
// # Client Pattern
//
// All adapters follow a consistent pattern:
//
//	client := pypi.NewClient(integrations.Options{Cache: c, Logger: logger})
//	md, err := client.Fetch(ctx, "fastapi")
//
// [Client.FetchMetadata] logs failures and returns nil, and
// [Client.FetchMultiple] fetches in concurrent batches of five.
//
// # Errors
//
// Requests made through [Requester] map HTTP failures onto the typed errors
// of the errors package: 404 matches errors.ErrNotFound, 429 and local
// ceilings yield *errors.RateLimitError, timeouts yield an APIError with
// status 408. Undecodable bodies yield *errors.ParseError, which is never
// retried.
//
// # Adding a New Source
//
//  1. Create a subpackage: pkg/integrations/<source>/
//  2. Define response structs matching the API schema
//  3. Implement [Adapter]; Fetch maps the response onto [Metadata]
//  4. Provide New, NewClient and a WithBaseURL option for tests
//  5. Route records to it in the enrich package
//
// [github]: github.com/matzehuels/curator/pkg/integrations/github
// [gitlab]: github.com/matzehuels/curator/pkg/integrations/gitlab
// [npm]: github.com/matzehuels/curator/pkg/integrations/npm
// [pypi]: github.com/matzehuels/curator/pkg/integrations/pypi
// [crates]: github.com/matzehuels/curator/pkg/integrations/crates
// [rubygems]: github.com/matzehuels/curator/pkg/integrations/rubygems
// [packagist]: github.com/matzehuels/curator/pkg/integrations/packagist
// [maven]: github.com/matzehuels/curator/pkg/integrations/maven
// [goproxy]: github.com/matzehuels/curator/pkg/integrations/goproxy
// [arxiv]: github.com/matzehuels/curator/pkg/integrations/arxiv
// [youtube]: github.com/matzehuels/curator/pkg/integrations/youtube
// [feed]: github.com/matzehuels/curator/pkg/integrations/feed
// [scrape]: github.com/matzehuels/curator/pkg/integrations/scrape
package integrations

// Package pkg provides the core libraries for Curator catalog enrichment.
//
// # Overview
//
// Curator keeps a hand-curated catalog of resources (repositories,
// libraries, papers, videos, podcasts, newsletters, articles and web pages)
// fresh by pulling metadata from each record's upstream source. The pkg
// directory is organized into four main areas:
//
//  1. [catalog] - Records, their on-disk and MongoDB stores
//  2. [integrations] - Upstream clients (GitHub, GitLab, registries, arXiv, ...)
//  3. [enrich] and [refresh] - The enrichment run and its refresh policy
//  4. Infrastructure - [cache], [ratelimit], [httputil], [observability], [io]
//
// # Architecture
//
// The data flow of one run:
//
//	catalog store (FileStore / MongoStore)
//	         ↓
//	    [refresh] policy (is a refresh due?)
//	         ↓
//	    [enrich] routing (record → upstream client + identifier)
//	         ↓
//	    [integrations] client: cache → rate limit → HTTP under retry → parse
//	         ↓
//	    [enrich] merge → save record → touch refresh state
//
// # Quick Start
//
// Enrich every repository record in a data directory:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/curator/pkg/cache"
//	    "github.com/matzehuels/curator/pkg/catalog"
//	    "github.com/matzehuels/curator/pkg/enrich"
//	    "github.com/matzehuels/curator/pkg/integrations"
//	    "github.com/matzehuels/curator/pkg/integrations/github"
//	    "github.com/matzehuels/curator/pkg/refresh"
//	)
//
//	c, _ := cache.NewFileCache("/tmp/curator")
//	orch := enrich.New(enrich.Config{
//	    Store: catalog.NewFileStore("data", nil),
//	    State: refresh.NewFileStore("data/.refresh.json"),
//	    Clients: enrich.Clients{
//	        GitHub: github.NewClient(token, integrations.Options{Cache: c}),
//	    },
//	})
//	stats, err := orch.Run(context.Background(), enrich.Options{
//	    Kinds: []catalog.Kind{catalog.KindRepository},
//	})
//
// # Main Packages
//
// [catalog] - The closed set of record kinds, [catalog.Entry] which keeps
// unknown JSON keys across a load/save cycle, and the Store backends.
//
// [integrations] - The generic source client. One [integrations.Adapter]
// per upstream describes endpoints, limits and parsing; the client adds
// caching, rate limiting and retries. Subpackages hold the adapters.
//
// [enrich] - Routes records to clients, merges fetched metadata into
// records and runs batches with bounded concurrency.
//
// [refresh] - The refresh-state document and the policy deciding whether a
// class of data (metadata, screenshots) is due.
//
// [cache] - TTL byte cache with file, Redis and null backends.
//
// [ratelimit] - Sliding-window limiter per upstream.
//
// [httputil] - Retry with exponential backoff and retry-after hints.
//
// [observability] - Hook interfaces for metrics; no-op by default.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/enrich/...             # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [catalog]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/catalog
// [integrations]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/integrations
// [enrich]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/enrich
// [refresh]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/refresh
// [cache]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/cache
// [ratelimit]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/ratelimit
// [httputil]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/observability
// [io]: https://pkg.go.dev/github.com/matzehuels/curator/pkg/io
package pkg

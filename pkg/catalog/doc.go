// Package catalog models the curated resource records and the stores
// that hold them.
//
// # Records
//
// A record is one JSON document with a "type" discriminant. Each of the
// fourteen kinds has its own struct implementing the sealed [Record]
// interface, so code that dispatches over kinds uses a type switch:
//
//	switch rec := e.Record.(type) {
//	case *catalog.Repository:
//	    fmt.Println(rec.RepositoryURL, rec.Stars)
//	case *catalog.Paper:
//	    fmt.Println(rec.ArxivID, rec.Title)
//	}
//
// All kinds embed [Base] with the user-authored fields (id, type, name,
// description, category, tags, dateAdded). The remaining fields are either
// identifiers (repositoryUrl, arxivId, videoId, rssUrl, toolUrl, url) or
// enrichment-owned values that a refresh may overwrite.
//
// # Unknown Keys
//
// Records are authored by hand and may carry keys this package does not
// model. An [Entry] keeps the raw document it was decoded from and writes
// those keys back on save, so enrichment never drops data it does not
// understand.
//
// # Stores
//
// [FileStore] keeps one file per record below a data directory and writes
// through a temp file and rename. [MongoStore] keeps one document per
// record in a MongoDB collection and saves by upsert on the id field. Both
// skip and log records that fail to decode instead of failing the load.
package catalog

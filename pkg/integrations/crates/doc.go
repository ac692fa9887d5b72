// Package crates provides a source adapter for the crates.io API.
//
// # Overview
//
// The adapter enriches library records whose registry is "crates" from
// https://crates.io/api/v1/crates/{name}: latest version, total downloads,
// repository, homepage, documentation and the license of the latest
// version.
//
// # Usage
//
//	client := crates.NewClient(integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "serde")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(md.Version, md.Downloads)
//
// # Rate Limits
//
// crates.io requires a descriptive User-Agent and allows crawlers one
// request per second. The adapter's limits enforce that spacing.
package crates

// Package github provides a source adapter for the GitHub REST API.
//
// # Overview
//
// The adapter fetches repository metrics from GitHub (https://api.github.com)
// for catalog enrichment: stars, forks, watchers, open issues, license,
// topics, archived flag, last push, and the language breakdown from the
// separate /languages endpoint (ordered by byte count, descending).
//
// # Usage
//
//	client := github.NewClient(os.Getenv("GITHUB_TOKEN"), integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "pallets/flask")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Stars:", md.Stars)
//
// # Authentication
//
// A personal access token is optional but recommended. Without a token
// the client enforces 10 requests/minute and 60/hour; with a token,
// 100/minute and 5000/hour.
package github

// Package npm provides a source adapter for the npm registry.
//
// # Overview
//
// The adapter enriches library records whose registry is "npm". It reads
// the manifest of the version tagged "latest" in dist-tags from
// https://registry.npmjs.org and the last month's download count from
// https://api.npmjs.org.
//
// # Usage
//
//	client := npm.NewClient(integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "express")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(md.Version, md.RepositoryURL)
//
// # Repository URLs
//
// The manifest's repository field may be a string or an object with a
// "url" key, and is often a git+https or git+ssh URL. It is normalized with
// [integrations.NormalizeRepoURL] so the result can route to the github or
// gitlab adapter.
package npm

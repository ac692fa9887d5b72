// Package maven provides a source adapter for Maven Central.
//
// # Overview
//
// The adapter enriches library records whose registry is "maven". The
// identifier is a "groupId:artifactId" coordinate. The latest version is
// found with the search API (query g:"…" AND a:"…"); the POM of that version
// supplies description, project URL, license and SCM repository.
//
// # Usage
//
//	client := maven.NewClient(integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "com.google.guava:guava")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(md.Version, md.RepositoryURL)
package maven

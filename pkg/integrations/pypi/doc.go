// Package pypi provides a source adapter for the Python Package Index.
//
// # Overview
//
// The adapter enriches library records whose registry is "pypi" from the
// PyPI JSON API (https://pypi.org/pypi/{name}/json). Names are normalized
// per PEP 503 before the request.
//
// # Usage
//
//	client := pypi.NewClient(integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "fastapi")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(md.Version, md.DocumentationURL)
//
// # Project URLs
//
// PyPI has no fixed repository field. The adapter probes project_urls
// under the keys Source, Source Code, Repository, Code, GitHub and Homepage
// and keeps the first GitHub or GitLab link. Documentation is probed under
// Documentation and Docs.
//
// # License
//
// The license is taken from the trove classifier when one is present
// ("License :: OSI Approved :: MIT License" yields "MIT License"), else from
// the license field when it is short.
package pypi

// Package rubygems provides a source adapter for the RubyGems API.
//
// The adapter enriches library records whose registry is "rubygems" from
// https://rubygems.org/api/v1/gems/{name}.json. When a gem declares no
// source_code_uri, a GitHub or GitLab homepage is used as the repository.
//
//	client := rubygems.NewClient(integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "rails")
package rubygems

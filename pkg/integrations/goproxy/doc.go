// Package goproxy provides a source adapter for the Go module proxy.
//
// # Overview
//
// The adapter enriches library records whose registry is "go" from
// https://proxy.golang.org/{module}/@latest. Module paths are escaped per
// the proxy protocol (uppercase letters become "!" plus lowercase).
//
//	client := goproxy.NewClient(integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "github.com/spf13/cobra")
//
// # Versions
//
// [NormalizeVersion] reduces the proxy's version to a plain
// major.minor.patch: the leading "v" and any pre-release or build suffix are
// removed, and pseudo-versions or non-semver strings become "0.0.0".
package goproxy

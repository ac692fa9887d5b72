// Package gitlab provides a source adapter for the GitLab REST API (v4).
//
// The adapter reads star and fork counts, topics, archived state, last
// activity, license and the namespace of a project, plus the language
// breakdown from /projects/:id/languages (percentages, ordered descending).
//
// Project paths may contain nested groups and are URL-encoded as a single
// path segment, as the API requires:
//
//	client := gitlab.NewClient(os.Getenv("GITLAB_TOKEN"), integrations.Options{})
//	md, err := client.Fetch(ctx, "gitlab-org/cli")
//
// A token is sent as PRIVATE-TOKEN and raises the local rate ceilings.
package gitlab

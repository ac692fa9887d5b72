// Package youtube provides a source adapter for YouTube videos.
//
// With an API key (YOUTUBE_API_KEY) the adapter calls the Data API v3
// videos endpoint with part=snippet,contentDetails,statistics and picks the
// largest available thumbnail. Without a key it falls back to the oEmbed
// endpoint, which yields only title, channel and thumbnail.
//
//	client := youtube.NewClient(os.Getenv("YOUTUBE_API_KEY"), integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "dQw4w9WgXcQ")
package youtube

// Package scrape provides a source adapter that reads metadata from HTML
// pages.
//
// Tools, documentation, communities, conferences, cheatsheets,
// certifications and books are enriched from their own page. [Extract]
// parses the page with goquery and takes each field from the first tier
// that has it:
//
//  1. Open Graph: og:title, og:description, og:image, og:site_name
//  2. twitter:* and plain name= meta tags, and <title>
//  3. the first <h1> and <p> of the body
//
// Relative image and favicon URLs are resolved against the page URL. When
// no image is found and a screenshot service is configured, its URL
// template supplies one.
package scrape

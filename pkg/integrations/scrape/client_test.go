package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/httputil"
	"github.com/matzehuels/curator/pkg/integrations"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtract_Tiers(t *testing.T) {
	base, _ := url.Parse("https://www.example.com/tools/lint")

	tests := []struct {
		name     string
		html     string
		wantT    string
		wantD    string
		wantImg  string
		wantSite string
	}{
		{
			name: "open graph",
			html: `<html><head>
				<meta property="og:title" content="Linter">
				<meta property="og:description" content="Finds bugs">
				<meta property="og:image" content="/img/card.png">
				<meta property="og:site_name" content="Example Tools">
				<meta name="twitter:title" content="ignored">
				<title>ignored too</title></head></html>`,
			wantT: "Linter", wantD: "Finds bugs",
			wantImg: "https://www.example.com/img/card.png", wantSite: "Example Tools",
		},
		{
			name: "twitter and name",
			html: `<html><head>
				<meta name="twitter:title" content="Tweety">
				<meta name="description" content="Plain description">
				<meta name="twitter:image" content="https://cdn.example.com/t.png">
				</head></html>`,
			wantT: "Tweety", wantD: "Plain description",
			wantImg: "https://cdn.example.com/t.png", wantSite: "example.com",
		},
		{
			name: "title tag",
			html: `<html><head><title>  Lint
				Page </title></head><body><h1>Heading</h1></body></html>`,
			wantT: "Lint Page", wantSite: "example.com",
		},
		{
			name:  "bare body",
			html:  `<html><body><h1>Heading</h1><p>First   paragraph.</p><p>Second.</p></body></html>`,
			wantT: "Heading", wantD: "First paragraph.", wantSite: "example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := Extract(parse(t, tt.html), base)
			if md.Title != tt.wantT {
				t.Errorf("Title = %q, want %q", md.Title, tt.wantT)
			}
			if md.Description != tt.wantD {
				t.Errorf("Description = %q, want %q", md.Description, tt.wantD)
			}
			if md.Image != tt.wantImg {
				t.Errorf("Image = %q, want %q", md.Image, tt.wantImg)
			}
			if md.SiteName != tt.wantSite {
				t.Errorf("SiteName = %q, want %q", md.SiteName, tt.wantSite)
			}
		})
	}
}

func TestExtract_Favicon(t *testing.T) {
	base, _ := url.Parse("https://example.com/docs/intro")

	md := Extract(parse(t, `<head><link rel="icon" href="static/icon.svg"></head>`), base)
	if md.Favicon != "https://example.com/docs/static/icon.svg" {
		t.Errorf("Favicon = %q", md.Favicon)
	}

	md = Extract(parse(t, `<head></head>`), base)
	if md.Favicon != "https://example.com/favicon.ico" {
		t.Errorf("default Favicon = %q", md.Favicon)
	}
}

func TestExtract_TruncatesBodyText(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	md := Extract(parse(t, "<p>"+strings.Repeat("word ", 200)+"</p>"), base)
	if n := len([]rune(md.Description)); n != maxTextLen {
		t.Errorf("len(Description) = %d, want %d", n, maxTextLen)
	}
	if !strings.HasSuffix(md.Description, "...") {
		t.Errorf("Description should end with an ellipsis")
	}
}

func TestAdapter_Fetch(t *testing.T) {
	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		switch r.URL.Path {
		case "/with-image":
			w.Write([]byte(`<meta property="og:title" content="A"><meta property="og:image" content="/a.png">`))
		case "/plain":
			w.Write([]byte(`<title>B</title>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(integrations.Options{Retry: httputil.Policy{MaxRetries: 1, BaseDelay: time.Millisecond}},
		WithScreenshotService("https://shots.example.com/?url={url}"))

	md, err := c.Fetch(context.Background(), server.URL+"/with-image")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if md.Image != server.URL+"/a.png" {
		t.Errorf("Image = %q", md.Image)
	}
	if !strings.Contains(accept, "text/html") {
		t.Errorf("Accept = %q, want text/html", accept)
	}

	md, err = c.Fetch(context.Background(), server.URL+"/plain")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	want := "https://shots.example.com/?url=" + url.QueryEscape(server.URL+"/plain")
	if md.Image != want {
		t.Errorf("Image = %q, want screenshot %q", md.Image, want)
	}

	_, err = c.Fetch(context.Background(), "javascript:alert(1)")
	if !cerrors.Is(err, cerrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

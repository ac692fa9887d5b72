package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/httputil"
	"github.com/matzehuels/curator/pkg/integrations"
)

const videoID = "dQw4w9WgXcQ"

func testOptions() integrations.Options {
	return integrations.Options{Retry: httputil.Policy{MaxRetries: 1, BaseDelay: time.Millisecond}}
}

func TestAdapter_FetchAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/videos" || q.Get("key") != "k" || q.Get("id") != videoID {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if q.Get("part") != "snippet,contentDetails,statistics" {
			http.Error(w, "bad part", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"items":[{
			"id": "dQw4w9WgXcQ",
			"snippet": {
				"title": "Never Gonna Give You Up",
				"channelTitle": "Rick Astley",
				"publishedAt": "2009-10-25T06:57:33Z",
				"thumbnails": {
					"default": {"url": "https://i.ytimg.com/vi/x/default.jpg"},
					"high": {"url": "https://i.ytimg.com/vi/x/hqdefault.jpg"}
				}
			},
			"statistics": {"viewCount": "1500000000", "likeCount": "17000000"},
			"contentDetails": {"duration": "PT3M33S"}
		}]}`))
	}))
	defer server.Close()

	md, err := NewClient("k", testOptions(), WithAPIURL(server.URL)).Fetch(context.Background(), videoID)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if md.Channel != "Rick Astley" {
		t.Errorf("Channel = %q", md.Channel)
	}
	if md.Views != 1500000000 || md.Likes != 17000000 {
		t.Errorf("Views/Likes = %d/%d", md.Views, md.Likes)
	}
	if md.Duration != "3:33" {
		t.Errorf("Duration = %q, want 3:33", md.Duration)
	}
	if md.Thumbnail != "https://i.ytimg.com/vi/x/hqdefault.jpg" {
		t.Errorf("Thumbnail = %q", md.Thumbnail)
	}
	if md.Published == nil || md.Published.Year() != 2009 {
		t.Errorf("Published = %v", md.Published)
	}
}

func TestAdapter_FetchAPINoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	_, err := NewClient("k", testOptions(), WithAPIURL(server.URL)).Fetch(context.Background(), videoID)
	if !errors.Is(err, cerrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAdapter_FetchOEmbed(t *testing.T) {
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		w.Write([]byte(`{"title":"Never Gonna Give You Up","author_name":"Rick Astley","thumbnail_url":"https://i.ytimg.com/vi/x/hqdefault.jpg"}`))
	}))
	defer server.Close()

	md, err := NewClient("", testOptions(), WithOEmbedURL(server.URL)).Fetch(context.Background(), videoID)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if gotURL != WatchURL(videoID) {
		t.Errorf("oembed url param = %q", gotURL)
	}
	if md.Channel != "Rick Astley" || md.Views != 0 {
		t.Errorf("Channel/Views = %q/%d", md.Channel, md.Views)
	}
}

func TestAdapter_FetchInvalidID(t *testing.T) {
	_, err := NewClient("", testOptions()).Fetch(context.Background(), "nope")
	if !cerrors.Is(err, cerrors.ErrCodeInvalidIdentifier) {
		t.Errorf("err = %v, want invalid identifier", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PT3M33S", "3:33"},
		{"PT1H2M3S", "1:02:03"},
		{"PT45S", "0:45"},
		{"PT2H", "2:00:00"},
		{"P1DT1M", "24:01:00"},
		{"garbage", "garbage"},
		{"PT5X", "PT5X"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.input); got != tt.want {
			t.Errorf("FormatDuration(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package rubygems

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

func testClient(t *testing.T, serverURL string) *integrations.Client {
	t.Helper()
	return NewClient(integrations.Options{
		Retry: httputil.Policy{MaxRetries: 1, BaseDelay: time.Millisecond},
	}, WithBaseURL(serverURL))
}

func TestAdapter_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gems/rails.json":
			w.Write([]byte(`{
				"name": "rails",
				"version": "7.1.2",
				"info": "Ruby on Rails is a full-stack web framework.",
				"licenses": ["MIT"],
				"source_code_uri": "https://github.com/rails/rails/tree/v7.1.2",
				"homepage_uri": "https://rubyonrails.org",
				"downloads": 450000000,
				"authors": "David Heinemeier Hansson"
			}`))
		case "/gems/sinatra.json":
			w.Write([]byte(`{"name":"sinatra","version":"4.0.0","licenses":["MIT","Ruby"],"homepage_uri":"https://github.com/sinatra/sinatra.git"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	md, err := c.Fetch(context.Background(), "Rails")
	if err != nil {
		t.Fatalf("Fetch(rails) error: %v", err)
	}
	if md.Version != "7.1.2" || md.Downloads != 450000000 {
		t.Errorf("Version/Downloads = %q/%d", md.Version, md.Downloads)
	}
	if md.License != "MIT" {
		t.Errorf("License = %q", md.License)
	}
	if md.ID != "Rails" {
		t.Errorf("ID = %q, want the identifier as requested", md.ID)
	}

	md, err = c.Fetch(context.Background(), "sinatra")
	if err != nil {
		t.Fatalf("Fetch(sinatra) error: %v", err)
	}
	if md.RepositoryURL != "https://github.com/sinatra/sinatra" {
		t.Errorf("RepositoryURL = %q", md.RepositoryURL)
	}
	if md.License != "MIT, Ruby" {
		t.Errorf("License = %q", md.License)
	}
}

func TestAdapter_FetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := testClient(t, server.URL).Fetch(context.Background(), "ghost")
	if !errors.Is(err, cerrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

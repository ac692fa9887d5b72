package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/httputil"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

const entryTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query: id_list=1706.03762</title>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on complex
      recurrent or convolutional neural networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:journal_ref>Advances in Neural Information Processing Systems 30 (2017)</arxiv:journal_ref>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="%s/pdf/1706.03762v7" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>ArXiv Query</title></feed>`

type fakeRenderer struct{ calls int }

func (f *fakeRenderer) Render(_ context.Context, pdf []byte, dst string) error {
	f.calls++
	return os.WriteFile(dst, pdf, 0o644)
}

func newServer(t *testing.T, pdfStatus int) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/query":
			if r.URL.Query().Get("id_list") != "1706.03762" {
				w.Write([]byte(emptyFeed))
				return
			}
			fmt.Fprintf(w, entryTemplate, srv.URL)
		case "/pdf/1706.03762v7":
			w.WriteHeader(pdfStatus)
			w.Write([]byte("%PDF-1.5 fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server, opts ...Option) *integrations.Client {
	unlimited := ratelimit.Limits{}
	opts = append([]Option{WithBaseURL(srv.URL + "/api/query")}, opts...)
	return NewClient(integrations.Options{
		Retry:  httputil.Policy{MaxRetries: 1, BaseDelay: time.Millisecond},
		Limits: &unlimited,
		Logger: log.New(io.Discard),
	}, opts...)
}

func TestAdapter_Fetch(t *testing.T) {
	srv := newServer(t, http.StatusOK)

	md, err := testClient(srv).Fetch(context.Background(), "arXiv:1706.03762")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if md.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", md.Title)
	}
	if len(md.Authors) != 2 || md.Authors[0] != "Ashish Vaswani" {
		t.Errorf("Authors = %v", md.Authors)
	}
	if md.Venue != "Advances in Neural Information Processing Systems 30 (2017)" {
		t.Errorf("Venue = %q", md.Venue)
	}
	if md.PDFURL != srv.URL+"/pdf/1706.03762v7" {
		t.Errorf("PDFURL = %q", md.PDFURL)
	}
	if len(md.Categories) != 2 || md.Categories[1] != "cs.LG" {
		t.Errorf("Categories = %v", md.Categories)
	}
	if md.Published == nil || md.Published.Year() != 2017 {
		t.Errorf("Published = %v", md.Published)
	}
	if md.Abstract == "" || md.Abstract[0] == ' ' {
		t.Errorf("Abstract = %q", md.Abstract)
	}
	if md.CoverImage != "" {
		t.Errorf("CoverImage = %q without covers configured", md.CoverImage)
	}
}

func TestAdapter_FetchNotFound(t *testing.T) {
	srv := newServer(t, http.StatusOK)

	_, err := testClient(srv).Fetch(context.Background(), "2101.00001")
	if !errors.Is(err, cerrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAdapter_FetchInvalidID(t *testing.T) {
	srv := newServer(t, http.StatusOK)

	_, err := testClient(srv).Fetch(context.Background(), "not an id")
	if !cerrors.Is(err, cerrors.ErrCodeInvalidIdentifier) {
		t.Errorf("err = %v, want invalid identifier", err)
	}
}

func TestAdapter_FetchCover(t *testing.T) {
	srv := newServer(t, http.StatusOK)
	dir := t.TempDir()
	r := &fakeRenderer{}

	c := testClient(srv, WithCovers(dir, "/img/covers", r))
	md, err := c.Fetch(context.Background(), "1706.03762")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if md.CoverImage != "/img/covers/1706.03762.png" {
		t.Errorf("CoverImage = %q", md.CoverImage)
	}
	if _, err := os.Stat(filepath.Join(dir, "1706.03762.png")); err != nil {
		t.Errorf("cover not written: %v", err)
	}

	// An existing cover is reused without rendering again.
	a := New(WithBaseURL(srv.URL+"/api/query"), WithCovers(dir, "/img/covers", r))
	if _, err := a.cover(context.Background(), c, "1706.03762", "unused"); err != nil {
		t.Fatalf("cover() error: %v", err)
	}
	if r.calls != 1 {
		t.Errorf("renderer calls = %d, want 1", r.calls)
	}
}

func TestAdapter_FetchCoverFailureIsNotFatal(t *testing.T) {
	srv := newServer(t, http.StatusForbidden)

	md, err := testClient(srv, WithCovers(t.TempDir(), "", &fakeRenderer{})).Fetch(context.Background(), "1706.03762")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if md.CoverImage != "" {
		t.Errorf("CoverImage = %q, want empty", md.CoverImage)
	}
	if md.Title == "" {
		t.Error("metadata should still be returned")
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1706.03762", "1706.03762"},
		{"arXiv:1706.03762v5", "1706.03762v5"},
		{"https://arxiv.org/abs/1706.03762", "1706.03762"},
		{"https://arxiv.org/pdf/1706.03762.pdf", "1706.03762"},
		{" hep-th/9901001 ", "hep-th/9901001"},
	}
	for _, tt := range tests {
		if got := NormalizeID(tt.input); got != tt.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/curator/pkg/catalog"
	"github.com/matzehuels/curator/pkg/httputil"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/integrations/arxiv"
	"github.com/matzehuels/curator/pkg/integrations/github"
	"github.com/matzehuels/curator/pkg/ratelimit"
	"github.com/matzehuels/curator/pkg/refresh"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu      sync.Mutex
	entries []*catalog.Entry
	saves   []string
	loadErr error
}

func newMemStore(t *testing.T, docs ...string) *memStore {
	t.Helper()
	s := &memStore{}
	for _, d := range docs {
		e, err := catalog.Decode([]byte(d))
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", d, err)
		}
		s.entries = append(s.entries, e)
	}
	return s
}

func (s *memStore) LoadAll(context.Context) ([]*catalog.Entry, error) {
	return s.entries, s.loadErr
}

func (s *memStore) Save(_ context.Context, e *catalog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, e.ID())
	return nil
}

type memState struct {
	state *refresh.State
	saved int
}

func (m *memState) Load(context.Context) (*refresh.State, error) { return m.state, nil }

func (m *memState) Save(_ context.Context, st *refresh.State) error {
	m.state = st
	m.saved++
	return nil
}

type fakeFetcher struct {
	name  string
	calls atomic.Int32
	fn    func(id string) (*integrations.Metadata, error)
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(_ context.Context, id string) (*integrations.Metadata, error) {
	f.calls.Add(1)
	return f.fn(id)
}

func newOrchestrator(store catalog.Store, state StateStore, clients Clients) *Orchestrator {
	return New(Config{
		Store:      store,
		State:      state,
		Clients:    clients,
		BatchDelay: -1,
		Logger:     log.New(io.Discard),
		Now:        func() time.Time { return testNow },
	})
}

func TestScenarioRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/foo/bar":
			w.Write([]byte(`{"full_name":"foo/bar","stargazers_count":42,"license":{"spdx_id":"MIT"},"archived":false,"topics":["cli"]}`))
		case "/repos/foo/bar/languages":
			w.Write([]byte(`{"Shell":10,"Go":900}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	gh := github.NewClient("", integrations.Options{
		Retry: httputil.Policy{MaxRetries: 1, BaseDelay: time.Millisecond},
	}, github.WithBaseURL(srv.URL))

	store := newMemStore(t, `{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar","topics":["tooling"]}`)
	o := newOrchestrator(store, nil, Clients{GitHub: gh})

	stats, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Updated != 1 || stats.Failed != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v", stats)
	}

	repo := store.entries[0].Record.(*catalog.Repository)
	if repo.Stars != 42 || repo.License != "MIT" || repo.Archived {
		t.Errorf("repo = %+v", repo)
	}
	if !slices.Contains(repo.Topics, "cli") || !slices.Contains(repo.Topics, "tooling") {
		t.Errorf("Topics = %v, want cli and tooling", repo.Topics)
	}
	if !slices.Equal(repo.Languages, []string{"Go", "Shell"}) {
		t.Errorf("Languages = %v, want [Go Shell]", repo.Languages)
	}
	if !slices.Equal(store.saves, []string{"bar"}) {
		t.Errorf("saves = %v", store.saves)
	}
}

const paperFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2103.12345v1</id>
    <published>2021-03-23T00:00:00Z</published>
    <title>A Paper</title>
    <summary>A non-empty abstract.</summary>
    <author><name>Ada Lovelace</name></author>
    <category term="cs.LG"/>
    <link href="http://arxiv.org/abs/2103.12345v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestScenarioPaperRetriesTimeout(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(paperFeed))
	}))
	defer srv.Close()

	unlimited := ratelimit.Limits{}
	ax := arxiv.NewClient(integrations.Options{
		Timeout: 100 * time.Millisecond,
		Retry:   httputil.Policy{MaxRetries: 2, BaseDelay: time.Millisecond},
		Limits:  &unlimited,
		Logger:  log.New(io.Discard),
	}, arxiv.WithBaseURL(srv.URL))

	store := newMemStore(t, `{"id":"paper","type":"paper","arxivId":"2103.12345"}`)
	stats, err := newOrchestrator(store, nil, Clients{Arxiv: ax}).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Updated != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want updated=1 failed=0", stats)
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d, want 2", requests.Load())
	}
	if p := store.entries[0].Record.(*catalog.Paper); p.Abstract == "" {
		t.Error("Abstract is empty")
	}
}

func TestScenarioToolWithoutURL(t *testing.T) {
	scrape := &fakeFetcher{name: "scrape", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Title: "x"}, nil
	}}
	store := newMemStore(t, `{"id":"jq","type":"tool","name":"jq"}`)

	stats, err := newOrchestrator(store, nil, Clients{Scrape: scrape}).Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 1 || stats.Updated != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want skipped=1", stats)
	}
	if scrape.calls.Load() != 0 {
		t.Errorf("scrape calls = %d, want 0", scrape.calls.Load())
	}
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bar.json")
	os.WriteFile(path, []byte(`{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar","topics":["a","b"],"featured":true}`), 0o644)

	pushed := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Source: "github", Stars: 7, Topics: []string{"b", "c"}, LastCommit: &pushed}, nil
	}}
	store := catalog.NewFileStore(dir, log.New(io.Discard))
	o := newOrchestrator(store, nil, Clients{GitHub: gh})

	first, err := o.Run(context.Background(), Options{Force: true})
	if err != nil || first.Updated != 1 {
		t.Fatalf("first Run() = %+v, %v", first, err)
	}
	after1, _ := os.ReadFile(path)

	second, err := o.Run(context.Background(), Options{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if second.Updated != 0 || second.Unchanged != 1 {
		t.Errorf("second Run() = %+v, want unchanged=1", second)
	}
	after2, _ := os.ReadFile(path)
	if string(after1) != string(after2) {
		t.Errorf("record changed on second run:\n%s\n%s", after1, after2)
	}

	entries, _ := store.LoadAll(context.Background())
	repo := entries[0].Record.(*catalog.Repository)
	if !slices.Equal(repo.Topics, []string{"a", "b", "c"}) {
		t.Errorf("Topics = %v", repo.Topics)
	}
	if _, ok := entries[0].Extra("featured"); !ok {
		t.Error("unknown key lost")
	}
}

func TestRunNotDue(t *testing.T) {
	last := testNow.Add(-24 * time.Hour)
	state := &memState{state: &refresh.State{Cache: map[refresh.Class]*refresh.ClassConfig{
		refresh.ClassMetadata: {TTLDays: 7, LastRefresh: &last},
	}}}
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Stars: 1}, nil
	}}
	store := newMemStore(t, `{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar"}`)

	stats, err := newOrchestrator(store, state, Clients{GitHub: gh}).Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !stats.Idle || gh.calls.Load() != 0 || state.saved != 0 {
		t.Errorf("stats = %+v calls = %d saved = %d, want idle run", stats, gh.calls.Load(), state.saved)
	}
	if stats.Total != 1 {
		t.Errorf("idle Total = %d, want the catalog size 1", stats.Total)
	}

	stats, err = newOrchestrator(store, state, Clients{GitHub: gh}).Run(context.Background(), Options{Force: true})
	if err != nil || stats.Idle || stats.Updated != 1 {
		t.Errorf("forced Run() = %+v, %v", stats, err)
	}
}

func TestRunTouchesRefreshState(t *testing.T) {
	state := &memState{state: &refresh.State{Cache: map[refresh.Class]*refresh.ClassConfig{
		refresh.ClassMetadata:    {TTLDays: 7},
		refresh.ClassScreenshots: {TTLDays: 30},
	}}}
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Source: "github", Stars: 1}, nil
	}}
	store := newMemStore(t, `{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar"}`)

	if _, err := newOrchestrator(store, state, Clients{GitHub: gh}).Run(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	if state.saved != 1 {
		t.Fatalf("state saved %d times, want 1", state.saved)
	}
	if got := state.state.Cache[refresh.ClassMetadata].LastRefresh; got == nil || !got.Equal(testNow) {
		t.Errorf("metadata lastRefresh = %v, want %v", got, testNow)
	}
	if state.state.Cache[refresh.ClassScreenshots].LastRefresh != nil {
		t.Error("screenshots lastRefresh advanced without any image")
	}
}

func TestRunFailuresLeaveStateAlone(t *testing.T) {
	state := &memState{}
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		return nil, errors.New("boom")
	}}
	store := newMemStore(t, `{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar","stars":3}`)

	stats, err := newOrchestrator(store, state, Clients{GitHub: gh}).Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || stats.Total != 1 {
		t.Errorf("stats = %+v, want failed=1", stats)
	}
	if repo := store.entries[0].Record.(*catalog.Repository); repo.Stars != 3 {
		t.Errorf("failed record was modified: %+v", repo)
	}
	if state.saved != 0 || len(store.saves) != 0 {
		t.Errorf("saved state %d, records %v; want nothing", state.saved, store.saves)
	}
}

func TestRunDryRun(t *testing.T) {
	state := &memState{}
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Source: "github", Stars: 9}, nil
	}}
	store := newMemStore(t, `{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar"}`)

	stats, err := newOrchestrator(store, state, Clients{GitHub: gh}).Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 1 || len(store.saves) != 0 || state.saved != 0 {
		t.Errorf("stats = %+v saves = %v stateSaves = %d", stats, store.saves, state.saved)
	}
}

func TestRunKindsFilter(t *testing.T) {
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Source: "github", Stars: 1}, nil
	}}
	store := newMemStore(t,
		`{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar"}`,
		`{"id":"p","type":"paper","arxivId":"2103.12345"}`,
		`{"id":"t","type":"tool"}`,
	)

	stats, err := newOrchestrator(store, nil, Clients{GitHub: gh}).Run(context.Background(), Options{
		Kinds: []catalog.Kind{catalog.KindRepository},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || stats.Updated != 1 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want only the repository", stats)
	}
}

func TestRunLoadFailureIsFatal(t *testing.T) {
	store := &memStore{loadErr: errors.New("disk gone")}
	stats, err := newOrchestrator(store, nil, Clients{}).Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("Run() = nil error, want load failure")
	}
	if stats == nil {
		t.Error("Run() returned nil stats")
	}
}

func TestRunBatchesBoundConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return &integrations.Metadata{Source: "github", Stars: 1}, nil
	}}

	var docs []string
	for i := range 12 {
		docs = append(docs, fmt.Sprintf(`{"id":"r%d","type":"repository","repositoryUrl":"https://github.com/foo/r%d"}`, i, i))
	}
	store := newMemStore(t, docs...)

	stats, err := newOrchestrator(store, nil, Clients{GitHub: gh}).Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 12 {
		t.Errorf("Updated = %d, want 12", stats.Updated)
	}
	if p := peak.Load(); p > DefaultBatchSize {
		t.Errorf("peak concurrency = %d, want <= %d", p, DefaultBatchSize)
	}
}

func TestRunArxivBatchUnderSpacingLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(paperFeed))
	}))
	defer srv.Close()

	spaced := ratelimit.Limits{PerMinute: 10, MinInterval: 50 * time.Millisecond}
	ax := arxiv.NewClient(integrations.Options{
		Retry:  httputil.Policy{MaxRetries: 3, BaseDelay: time.Millisecond},
		Limits: &spaced,
		Logger: log.New(io.Discard),
	}, arxiv.WithBaseURL(srv.URL))

	var docs []string
	for i := 1; i <= DefaultBatchSize; i++ {
		docs = append(docs, fmt.Sprintf(`{"id":"p%d","type":"paper","arxivId":"2103.1234%d"}`, i, i))
	}
	store := newMemStore(t, docs...)

	stats, err := newOrchestrator(store, nil, Clients{Arxiv: ax}).Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != DefaultBatchSize || stats.Failed != 0 {
		t.Errorf("stats = %+v, want all %d papers updated", stats, DefaultBatchSize)
	}
	if got := hits.Load(); got != DefaultBatchSize {
		t.Errorf("upstream hits = %d, want %d", got, DefaultBatchSize)
	}
}

func TestRunPartialTargetsKeepSeparateClocks(t *testing.T) {
	state := &memState{}
	gh := &fakeFetcher{name: "github", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Source: "github", Stars: 5}, nil
	}}
	ax := &fakeFetcher{name: "arxiv", fn: func(string) (*integrations.Metadata, error) {
		return &integrations.Metadata{Source: "arxiv", Abstract: "An abstract."}, nil
	}}
	store := newMemStore(t,
		`{"id":"bar","type":"repository","repositoryUrl":"https://github.com/foo/bar"}`,
		`{"id":"p","type":"paper","arxivId":"2103.12345"}`,
	)
	o := newOrchestrator(store, state, Clients{GitHub: gh, Arxiv: ax})
	papers := Options{Kinds: []catalog.Kind{catalog.KindPaper}, Target: "papers"}
	repos := Options{Kinds: []catalog.Kind{catalog.KindRepository}, Target: "repositories"}

	if stats, err := o.Run(context.Background(), papers); err != nil || stats.Updated != 1 {
		t.Fatalf("papers Run() = %+v, %v", stats, err)
	}

	stats, err := o.Run(context.Background(), repos)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Idle || stats.Updated != 1 || gh.calls.Load() != 1 {
		t.Errorf("repositories Run() = %+v, github calls = %d; want a fetch", stats, gh.calls.Load())
	}

	stats, err = o.Run(context.Background(), papers)
	if err != nil {
		t.Fatal(err)
	}
	if !stats.Idle || ax.calls.Load() != 1 {
		t.Errorf("second papers Run() = %+v, arxiv calls = %d; want idle", stats, ax.calls.Load())
	}
	if stats.Total != 1 {
		t.Errorf("idle Total = %d, want 1", stats.Total)
	}

	got := state.state.Targets
	if !got["papers"].Equal(testNow) || !got["repositories"].Equal(testNow) {
		t.Errorf("Targets = %v", got)
	}
	if state.state.LastRefresh != nil {
		t.Error("partial runs advanced the full-run clock")
	}
}

func TestOptionsTargetDefaultsToKinds(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{}, ""},
		{Options{Target: "all"}, ""},
		{Options{Kinds: []catalog.Kind{catalog.KindPaper}, Target: "papers"}, "papers"},
		{Options{Kinds: []catalog.Kind{catalog.KindPodcast, catalog.KindArticle}}, "article,podcast"},
	}
	for _, tt := range tests {
		if got := tt.opts.target(); got != tt.want {
			t.Errorf("%+v.target() = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

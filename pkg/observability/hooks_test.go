package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopEnrichHooks{}
	e.OnRunStart(ctx, "run-1", 10)
	e.OnRecordComplete(ctx, "repository", "github", "updated", time.Second, nil)
	e.OnRunComplete(ctx, "run-1", RunSummary{Total: 10, Updated: 3}, time.Minute)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "github")
	c.OnCacheMiss(ctx, "npm")
	c.OnCacheSet(ctx, "pypi", 1024)
	c.OnCacheError(ctx, "arxiv", nil)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.github.com", "/repos/foo/bar")
	h.OnResponse(ctx, "GET", "api.github.com", "/repos/foo/bar", 200, time.Second)
	h.OnError(ctx, "GET", "api.github.com", "/repos/foo/bar", nil)

	l := NoopLimitHooks{}
	l.OnRateLimited(ctx, "github", time.Second)
	l.OnRetry(ctx, "github", 1, time.Second, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Enrich().(NoopEnrichHooks); !ok {
		t.Error("Enrich() should return NoopEnrichHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}
	if _, ok := Limit().(NoopLimitHooks); !ok {
		t.Error("Limit() should return NoopLimitHooks by default")
	}

	customEnrich := &testEnrichHooks{}
	SetEnrichHooks(customEnrich)
	if Enrich() != customEnrich {
		t.Error("SetEnrichHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	customLimit := &testLimitHooks{}
	SetLimitHooks(customLimit)
	if Limit() != customLimit {
		t.Error("SetLimitHooks should set custom hooks")
	}

	Reset()
	if _, ok := Enrich().(NoopEnrichHooks); !ok {
		t.Error("Reset() should restore NoopEnrichHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEnrichHooks{}
	SetEnrichHooks(custom)
	SetEnrichHooks(nil)

	if Enrich() != custom {
		t.Error("SetEnrichHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testEnrichHooks struct{ NoopEnrichHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
type testLimitHooks struct{ NoopLimitHooks }

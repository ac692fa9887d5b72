package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/curator/pkg/observability"
)

func TestHooksRecord(t *testing.T) {
	m := New()
	m.Install()
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	observability.Enrich().OnRunStart(ctx, "run", 2)
	observability.Enrich().OnRecordComplete(ctx, "repository", "github", "updated", time.Second, nil)
	observability.Enrich().OnRecordComplete(ctx, "tool", "", "skipped", 0, nil)
	observability.Enrich().OnRunComplete(ctx, "run", observability.RunSummary{Total: 2, Updated: 1, Skipped: 1}, time.Second)
	observability.Cache().OnCacheHit(ctx, "github")
	observability.Cache().OnCacheSet(ctx, "github", 128)
	observability.HTTP().OnResponse(ctx, "GET", "api.github.com", "/repos/foo/bar", 200, time.Millisecond)
	observability.Limit().OnRetry(ctx, "arxiv", 0, time.Second, nil)

	if got := testutil.ToFloat64(m.RunsTotal); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("repository", "github", "updated")); got != 1 {
		t.Errorf("updated records = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastRunRecords.WithLabelValues("skipped")); got != 1 {
		t.Errorf("last run skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheBytesWritten.WithLabelValues("github")); got != 128 {
		t.Errorf("cache bytes = %v, want 128", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("api.github.com", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RetriesTotal.WithLabelValues("arxiv")); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RunsTotal.Inc()

	path := filepath.Join(t.TempDir(), "curator.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "curator_runs_total 1") {
		t.Errorf("textfile missing counter:\n%s", data)
	}
}

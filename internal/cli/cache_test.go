package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/curator/pkg/cache"
)

func TestCacheStatsAndClear(t *testing.T) {
	env := newTestEnv(t)
	fc, err := cache.NewFileCache(env.cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"github:foo/bar", "npm:left-pad"} {
		if err := fc.Set(ctx, key, []byte(`{"title":"x"}`), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	out, err := env.run("cache", "stats")
	if err != nil {
		t.Fatalf("cache stats error = %v", err)
	}
	if !strings.Contains(out, "Entries") || !strings.Contains(out, "2") {
		t.Errorf("cache stats output = %q", out)
	}

	out, err = env.run("cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	if !strings.Contains(out, "Cleared 2 cached entries") {
		t.Errorf("cache clear output = %q", out)
	}

	out, err = env.run("cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("second clear output = %q", out)
	}
}

func TestCacheClean(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	fc, err := cache.NewFileCache(env.cacheDir, cache.WithClock(func() time.Time { return now.Add(-2 * time.Hour) }))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "github:old/repo", []byte("{}"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(ctx, "github:new/repo", []byte("{}"), 24*time.Hour); err != nil {
		t.Fatal(err)
	}

	out, err := env.run("cache", "clean")
	if err != nil {
		t.Fatalf("cache clean error = %v", err)
	}
	if !strings.Contains(out, "Removed 1 expired entries") {
		t.Errorf("cache clean output = %q", out)
	}
}

func TestCacheUnknownSubcommand(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("cache", "purge"); err == nil {
		t.Error("unknown cache subcommand should fail")
	}
	out, err := env.run("cache", "help")
	if err != nil {
		t.Fatalf("cache help error = %v", err)
	}
	if !strings.Contains(out, "stats") || !strings.Contains(out, "clean") {
		t.Errorf("cache help output = %q", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

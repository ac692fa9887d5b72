package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvGitHubToken, EnvGitLabToken, EnvYouTubeAPIKey, EnvDisableScreenshots, EnvRedisURL, EnvMongoURI} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Store.Backend != StoreFile {
		t.Errorf("backends = %q/%q, want file/file", cfg.Cache.Backend, cfg.Store.Backend)
	}
	if cfg.Cache.Dir == "" {
		t.Error("Cache.Dir is empty")
	}
	if cfg.Enrich.BatchSize != 5 || cfg.Enrich.BatchDelay.Duration != 500*time.Millisecond {
		t.Errorf("enrich = %+v", cfg.Enrich)
	}
	if !cfg.Screenshots.Enabled {
		t.Error("screenshots disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
data_dir = "content"

[enrich]
batch_size = 2
batch_delay = "1s"

[sources.github]
per_hour = 1000
cache_ttl = "2h"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "content" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Enrich.BatchSize != 2 || cfg.Enrich.BatchDelay.Duration != time.Second {
		t.Errorf("enrich = %+v", cfg.Enrich)
	}
	// Untouched keys keep their defaults.
	if cfg.Enrich.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Enrich.MaxRetries)
	}
	gh := cfg.Source("github")
	if gh.CacheTTL.Duration != 2*time.Hour {
		t.Errorf("github cache_ttl = %v", gh.CacheTTL)
	}
	l := gh.Limits(ratelimit.Limits{PerMinute: 30, MinInterval: time.Second})
	if l == nil || l.PerMinute != 30 || l.PerHour != 1000 || l.MinInterval != time.Second {
		t.Errorf("Limits() = %+v", l)
	}
	if cfg.Source("npm").Limits(ratelimit.Limits{PerMinute: 60}) != nil {
		t.Error("unset source should not override limits")
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
state_file: state/refresh.json
store:
  backend: mongo
  mongo_uri: mongodb://localhost:27017
screenshots:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StateFile != "state/refresh.json" {
		t.Errorf("StateFile = %q", cfg.StateFile)
	}
	if cfg.Store.Backend != StoreMongo || cfg.Store.MongoDB != "curator" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Screenshots.Enabled {
		t.Error("screenshots should be disabled")
	}
}

func TestLoadMissing(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() of missing explicit path should fail")
	}
}

func TestLoadUnknownKey(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", "data_dri = \"typo\"\n")
	_, err := Load(path)
	if !cerrors.Is(err, cerrors.ErrCodeInvalidConfig) {
		t.Errorf("Load() error = %v, want invalid config", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGitHubToken, "ghp_x")
	t.Setenv(EnvYouTubeAPIKey, "yt")
	t.Setenv(EnvDisableScreenshots, "yes")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load(writeFile(t, "config.toml", ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GitHubToken != "ghp_x" || cfg.YouTubeAPIKey != "yt" || cfg.GitLabToken != "" {
		t.Errorf("tokens = %q %q %q", cfg.GitHubToken, cfg.YouTubeAPIKey, cfg.GitLabToken)
	}
	if cfg.Screenshots.Enabled {
		t.Error("screenshots should be disabled by env")
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without url", func(c *Config) { c.Cache.Backend = CacheRedis }},
		{"store backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"mongo without uri", func(c *Config) { c.Store.Backend = StoreMongo }},
		{"batch size", func(c *Config) { c.Enrich.BatchSize = 0 }},
		{"retries", func(c *Config) { c.Enrich.MaxRetries = -1 }},
		{"service url", func(c *Config) { c.Screenshots.ServiceURL = "https://shots.example.com/" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatal(err)
			}
			tt.modify(cfg)
			if err := cfg.Validate(); !cerrors.Is(err, cerrors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() error = %v, want invalid config", err)
			}
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	clearEnv(t)
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Enrich.RetryPolicy()
	if p.MaxRetries != 3 || p.BaseDelay != time.Second || p.MaxDelay != time.Minute {
		t.Errorf("RetryPolicy() = %+v", p)
	}
}

func TestTruthy(t *testing.T) {
	for v, want := range map[string]bool{"1": true, "true": true, "YES": true, "on": true, "": false, "0": false, "no": false} {
		if got := truthy(v); got != want {
			t.Errorf("truthy(%q) = %v, want %v", v, got, want)
		}
	}
}

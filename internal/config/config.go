// Package config loads the curator configuration.
//
// The file format follows the extension: .toml (the default) or
// .yaml/.yml. Values not set in the file keep the embedded defaults, and
// environment variables override secrets and backend URLs.
package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/httputil"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

//go:embed default_config.toml
var defaultConfigFS embed.FS

// Environment variables read by [Load].
const (
	EnvGitHubToken        = "GITHUB_TOKEN"
	EnvGitLabToken        = "GITLAB_TOKEN"
	EnvYouTubeAPIKey      = "YOUTUBE_API_KEY"
	EnvDisableScreenshots = "CURATOR_DISABLE_SCREENSHOTS"
	EnvRedisURL           = "CURATOR_REDIS_URL"
	EnvMongoURI           = "CURATOR_MONGO_URI"
)

// Backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreFile  = "file"
	StoreMongo = "mongo"
)

// Duration is a time.Duration written as a string such as "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full configuration.
type Config struct {
	DataDir     string `toml:"data_dir" yaml:"data_dir"`
	StateFile   string `toml:"state_file" yaml:"state_file"`
	CoversDir   string `toml:"covers_dir" yaml:"covers_dir"`
	CoverPrefix string `toml:"cover_prefix" yaml:"cover_prefix"`

	Cache       CacheConfig             `toml:"cache" yaml:"cache"`
	Store       StoreConfig             `toml:"store" yaml:"store"`
	Enrich      EnrichConfig            `toml:"enrich" yaml:"enrich"`
	Screenshots ScreenshotConfig        `toml:"screenshots" yaml:"screenshots"`
	Sources     map[string]SourceConfig `toml:"sources" yaml:"sources"`

	// Secrets, from the environment only.
	GitHubToken   string `toml:"-" yaml:"-"`
	GitLabToken   string `toml:"-" yaml:"-"`
	YouTubeAPIKey string `toml:"-" yaml:"-"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend     string `toml:"backend" yaml:"backend"`
	Dir         string `toml:"dir" yaml:"dir"`
	RedisURL    string `toml:"redis_url" yaml:"redis_url"`
	RedisPrefix string `toml:"redis_prefix" yaml:"redis_prefix"`
}

// StoreConfig selects the catalog store backend.
type StoreConfig struct {
	Backend         string `toml:"backend" yaml:"backend"`
	MongoURI        string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDB         string `toml:"mongo_db" yaml:"mongo_db"`
	MongoCollection string `toml:"mongo_collection" yaml:"mongo_collection"`
}

// EnrichConfig tunes batching and retries.
type EnrichConfig struct {
	BatchSize  int      `toml:"batch_size" yaml:"batch_size"`
	BatchDelay Duration `toml:"batch_delay" yaml:"batch_delay"`
	MaxRetries int      `toml:"max_retries" yaml:"max_retries"`
	BaseDelay  Duration `toml:"base_delay" yaml:"base_delay"`
	MaxDelay   Duration `toml:"max_delay" yaml:"max_delay"`
}

// RetryPolicy returns the configured retry policy.
func (e EnrichConfig) RetryPolicy() httputil.Policy {
	return httputil.Policy{
		MaxRetries: e.MaxRetries,
		BaseDelay:  e.BaseDelay.Duration,
		MaxDelay:   e.MaxDelay.Duration,
	}
}

// ScreenshotConfig controls the screenshot fallback of the page scraper.
type ScreenshotConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	// ServiceURL is a template with a {url} placeholder.
	ServiceURL string `toml:"service_url" yaml:"service_url"`
}

// SourceConfig overrides the defaults of one upstream.
type SourceConfig struct {
	BaseURL   string   `toml:"base_url" yaml:"base_url"`
	PerMinute int      `toml:"per_minute" yaml:"per_minute"`
	PerHour   int      `toml:"per_hour" yaml:"per_hour"`
	CacheTTL  Duration `toml:"cache_ttl" yaml:"cache_ttl"`
}

// Limits returns the overridden ceilings, or nil when neither ceiling is
// set. Spacing between calls is kept from def.
func (s SourceConfig) Limits(def ratelimit.Limits) *ratelimit.Limits {
	if s.PerMinute == 0 && s.PerHour == 0 {
		return nil
	}
	l := def
	if s.PerMinute != 0 {
		l.PerMinute = s.PerMinute
	}
	if s.PerHour != 0 {
		l.PerHour = s.PerHour
	}
	return &l
}

// Source returns the overrides for name; the zero value when unset.
func (c *Config) Source(name string) SourceConfig {
	return c.Sources[name]
}

// DefaultConfigPath is $XDG_CONFIG_HOME/curator/config.toml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "curator", "config.toml")
}

// DefaultCacheDir is $XDG_CACHE_HOME/curator.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "curator")
}

// Default returns the embedded defaults with environment overrides applied.
func Default() (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyPaths()
	return cfg, nil
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.toml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the configuration at path over the defaults. An empty path
// uses [DefaultConfigPath], which may be absent; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "parsing config %s", path)
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "parsing config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cerrors.New(cerrors.ErrCodeInvalidConfig, "config %s: unknown key %q", path, undecoded[0].String())
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.GitHubToken = os.Getenv(EnvGitHubToken)
	c.GitLabToken = os.Getenv(EnvGitLabToken)
	c.YouTubeAPIKey = os.Getenv(EnvYouTubeAPIKey)
	if truthy(os.Getenv(EnvDisableScreenshots)) {
		c.Screenshots.Enabled = false
	}
	if u := os.Getenv(EnvRedisURL); u != "" {
		c.Cache.Backend = CacheRedis
		c.Cache.RedisURL = u
	}
	if u := os.Getenv(EnvMongoURI); u != "" {
		c.Store.Backend = StoreMongo
		c.Store.MongoURI = u
	}
}

func (c *Config) applyPaths() {
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir()
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
}

// Validate checks backend names and required settings.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return cerrors.New(cerrors.ErrCodeInvalidConfig, "cache backend redis needs redis_url or %s", EnvRedisURL)
		}
	default:
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "unknown cache backend %q (valid: file, redis, none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreFile:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return cerrors.New(cerrors.ErrCodeInvalidConfig, "store backend mongo needs mongo_uri or %s", EnvMongoURI)
		}
	default:
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "unknown store backend %q (valid: file, mongo)", c.Store.Backend)
	}
	if c.Enrich.BatchSize < 1 {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "enrich.batch_size must be at least 1")
	}
	if c.Enrich.MaxRetries < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "enrich.max_retries cannot be negative")
	}
	if c.Screenshots.ServiceURL != "" && !strings.Contains(c.Screenshots.ServiceURL, "{url}") {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "screenshots.service_url must contain {url}")
	}
	return nil
}

// truthy accepts the usual boolean spellings plus "yes" and "on".
func truthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "yes" || v == "on" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

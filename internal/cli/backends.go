package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/curator/internal/config"
	"github.com/matzehuels/curator/pkg/buildinfo"
	"github.com/matzehuels/curator/pkg/cache"
	"github.com/matzehuels/curator/pkg/catalog"
	"github.com/matzehuels/curator/pkg/enrich"
	"github.com/matzehuels/curator/pkg/integrations"
	"github.com/matzehuels/curator/pkg/integrations/arxiv"
	"github.com/matzehuels/curator/pkg/integrations/crates"
	"github.com/matzehuels/curator/pkg/integrations/feed"
	"github.com/matzehuels/curator/pkg/integrations/github"
	"github.com/matzehuels/curator/pkg/integrations/gitlab"
	"github.com/matzehuels/curator/pkg/integrations/goproxy"
	"github.com/matzehuels/curator/pkg/integrations/maven"
	"github.com/matzehuels/curator/pkg/integrations/npm"
	"github.com/matzehuels/curator/pkg/integrations/packagist"
	"github.com/matzehuels/curator/pkg/integrations/pypi"
	"github.com/matzehuels/curator/pkg/integrations/rubygems"
	"github.com/matzehuels/curator/pkg/integrations/scrape"
	"github.com/matzehuels/curator/pkg/integrations/youtube"
	"github.com/matzehuels/curator/pkg/refresh"
)

// openCache opens the configured response cache backend.
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:    cfg.Cache.RedisURL,
			Prefix: cfg.Cache.RedisPrefix,
		})
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

// catalogStore is a catalog.Store with backend resources to release.
type catalogStore interface {
	catalog.Store
	Close(ctx context.Context) error
}

type fileStore struct{ *catalog.FileStore }

func (fileStore) Close(context.Context) error { return nil }

// openStore opens the configured catalog backend.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (catalogStore, error) {
	if cfg.Store.Backend == config.StoreMongo {
		return catalog.NewMongoStore(ctx, catalog.MongoConfig{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.MongoDB,
			Collection: cfg.Store.MongoCollection,
		}, logger)
	}
	return fileStore{catalog.NewFileStore(cfg.DataDir, logger)}, nil
}

// openState returns the refresh-state store. A relative state_file
// resolves against the working directory.
func openState(cfg *config.Config) *refresh.FileStore {
	return refresh.NewFileStore(filepath.Clean(cfg.StateFile))
}

// sourceOptions applies the per-source overrides of cfg to base.
func sourceOptions(base integrations.Options, cfg *config.Config, a integrations.Adapter) integrations.Options {
	opts := base
	src := cfg.Source(a.Name())
	opts.Limits = src.Limits(a.Limits())
	opts.CacheTTL = src.CacheTTL.Duration
	return opts
}

// buildClients constructs one client per upstream, all sharing c and the
// retry policy of cfg.
func buildClients(cfg *config.Config, c cache.Cache, logger *log.Logger, force bool) enrich.Clients {
	base := integrations.Options{
		Cache:      c,
		Retry:      cfg.Enrich.RetryPolicy(),
		Logger:     logger,
		Refresh:    force,
		UserAgent:  buildinfo.UserAgent(),
		BatchSize:  cfg.Enrich.BatchSize,
		BatchDelay: cfg.Enrich.BatchDelay.Duration,
	}
	baseURL := func(name string) string { return cfg.Source(name).BaseURL }
	client := func(a integrations.Adapter) *integrations.Client {
		return integrations.NewClient(a, sourceOptions(base, cfg, a))
	}

	var ghOpts []github.Option
	if u := baseURL("github"); u != "" {
		ghOpts = append(ghOpts, github.WithBaseURL(u))
	}
	var glOpts []gitlab.Option
	if u := baseURL("gitlab"); u != "" {
		glOpts = append(glOpts, gitlab.WithBaseURL(u))
	}
	var ytOpts []youtube.Option
	if u := baseURL("youtube"); u != "" {
		ytOpts = append(ytOpts, youtube.WithAPIURL(u))
	}
	axOpts := []arxiv.Option{arxiv.WithLogger(logger)}
	if u := baseURL("arxiv"); u != "" {
		axOpts = append(axOpts, arxiv.WithBaseURL(u))
	}
	if cfg.CoversDir != "" {
		r := arxiv.PDFToPPM{}
		if r.Available() {
			axOpts = append(axOpts, arxiv.WithCovers(cfg.CoversDir, cfg.CoverPrefix, r))
		} else {
			logger.Warn("pdftoppm not found, paper covers disabled")
		}
	}
	var scOpts []scrape.Option
	if cfg.Screenshots.Enabled && cfg.Screenshots.ServiceURL != "" {
		scOpts = append(scOpts, scrape.WithScreenshotService(cfg.Screenshots.ServiceURL))
	}

	var (
		npmOpts       []npm.Option
		pypiOpts      []pypi.Option
		cratesOpts    []crates.Option
		rubygemsOpts  []rubygems.Option
		packagistOpts []packagist.Option
		mavenOpts     []maven.Option
		goproxyOpts   []goproxy.Option
	)
	if u := baseURL("npm"); u != "" {
		npmOpts = append(npmOpts, npm.WithBaseURL(u))
	}
	if u := baseURL("pypi"); u != "" {
		pypiOpts = append(pypiOpts, pypi.WithBaseURL(u))
	}
	if u := baseURL("crates"); u != "" {
		cratesOpts = append(cratesOpts, crates.WithBaseURL(u))
	}
	if u := baseURL("rubygems"); u != "" {
		rubygemsOpts = append(rubygemsOpts, rubygems.WithBaseURL(u))
	}
	if u := baseURL("packagist"); u != "" {
		packagistOpts = append(packagistOpts, packagist.WithBaseURL(u))
	}
	if u := baseURL("maven"); u != "" {
		mavenOpts = append(mavenOpts, maven.WithSearchURL(u))
	}
	if u := baseURL("goproxy"); u != "" {
		goproxyOpts = append(goproxyOpts, goproxy.WithBaseURL(u))
	}

	return enrich.Clients{
		GitHub:  client(github.New(cfg.GitHubToken, ghOpts...)),
		GitLab:  client(gitlab.New(cfg.GitLabToken, glOpts...)),
		Arxiv:   client(arxiv.New(axOpts...)),
		YouTube: client(youtube.New(cfg.YouTubeAPIKey, ytOpts...)),
		Feed:    client(feed.New()),
		Scrape:  client(scrape.New(scOpts...)),
		Registries: map[string]enrich.Fetcher{
			"npm":       client(npm.New(npmOpts...)),
			"pypi":      client(pypi.New(pypiOpts...)),
			"crates":    client(crates.New(cratesOpts...)),
			"rubygems":  client(rubygems.New(rubygemsOpts...)),
			"packagist": client(packagist.New(packagistOpts...)),
			"maven":     client(maven.New(mavenOpts...)),
			"go":        client(goproxy.New(goproxyOpts...)),
		},
	}
}

// describeCache names the cache location for display.
func describeCache(cfg *config.Config) string {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		return fmt.Sprintf("redis (%s*)", cfg.Cache.RedisPrefix)
	case config.CacheNone:
		return "disabled"
	default:
		return cfg.Cache.Dir
	}
}

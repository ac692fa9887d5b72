// Package cli implements the curator command-line interface.
//
// The CLI is a thin maintenance surface over the enrichment pipeline:
//
//   - fetch: enrich catalog records of one resource type (or all)
//   - cache: inspect and prune the HTTP response cache
//   - completion: generate shell completion scripts
//
// Configuration comes from a TOML or YAML file (see internal/config);
// global flags override the file. All commands support --verbose (-v)
// for debug-level logging.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/curator/internal/config"
	"github.com/matzehuels/curator/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "curator"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	dataDir     string
	cacheDir    string
	noCache     bool
	verbose     bool
	metricsFile string
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	opts globalOptions
	cfg  *config.Config
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Curator keeps a resource catalog's metadata fresh",
		Long:         `Curator enriches a catalog of curated resources (repositories, libraries, papers, videos, feeds and web pages) with metadata from their upstream sources, respecting per-source rate limits and a refresh policy.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.opts.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.configPath, "config", "", "config file (default "+config.DefaultConfigPath()+")")
	flags.StringVar(&c.opts.dataDir, "data-dir", "", "catalog data directory (overrides data_dir)")
	flags.StringVar(&c.opts.cacheDir, "cache-dir", "", "response cache directory (overrides cache.dir)")
	flags.BoolVar(&c.opts.noCache, "no-cache", false, "disable the response cache")
	flags.BoolVarP(&c.opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration once and applies flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.opts.configPath)
	if err != nil {
		return nil, err
	}
	if c.opts.dataDir != "" {
		cfg.DataDir = c.opts.dataDir
	}
	if c.opts.cacheDir != "" {
		cfg.Cache.Dir = c.opts.cacheDir
	}
	if c.opts.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	c.cfg = cfg
	return cfg, nil
}

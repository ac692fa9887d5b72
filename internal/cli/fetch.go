package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/curator/internal/metrics"
	"github.com/matzehuels/curator/pkg/catalog"
	"github.com/matzehuels/curator/pkg/enrich"
	"github.com/matzehuels/curator/pkg/observability"
)

// fetchTargets maps the fetch argument to the record kinds it covers.
// "all" maps to nil, which the orchestrator reads as every kind.
var fetchTargets = map[string][]catalog.Kind{
	"repositories": {catalog.KindRepository},
	"libraries":    {catalog.KindLibrary},
	"papers":       {catalog.KindPaper},
	"videos":       {catalog.KindVideo},
	"feeds":        {catalog.KindPodcast, catalog.KindNewsletter, catalog.KindArticle},
	"pages": {
		catalog.KindTool, catalog.KindBook, catalog.KindDocumentation, catalog.KindCommunity,
		catalog.KindConference, catalog.KindCheatsheet, catalog.KindCertification,
	},
	"all": nil,
}

// fetchOptions holds options for the fetch command.
type fetchOptions struct {
	force  bool
	dryRun bool
}

// fetchCommand creates the fetch command for enriching catalog records.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <repositories|libraries|papers|videos|feeds|pages|all>",
		Short: "Enrich catalog records with upstream metadata",
		Long: `Fetch metadata for catalog records of one resource type and write the
merged records back to the catalog.

A run is skipped when the refresh state says metadata is still fresh;
--force ignores the refresh state and bypasses cached responses.`,
		Example: `  # Refresh repository stats if due
  curator fetch repositories

  # Refresh everything now, without writing
  curator fetch all --force --dry-run`,
		ValidArgs: []string{"repositories", "libraries", "papers", "videos", "feeds", "pages", "all"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "ignore the refresh policy and cached responses")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "fetch and merge without saving records or state")

	return cmd
}

func (c *CLI) runFetch(cmd *cobra.Command, target string, opts fetchOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	if c.opts.metricsFile != "" {
		m := metrics.New()
		m.Install()
		defer observability.Reset()
		defer func() {
			if err := m.WriteTextfile(c.opts.metricsFile); err != nil {
				logger.Warn("writing metrics failed", "path", c.opts.metricsFile, "err", err)
			}
		}()
	}

	respCache, err := openCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer respCache.Close()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store.Close(closeCtx)
	}()

	orch := enrich.New(enrich.Config{
		Store:      store,
		State:      openState(cfg),
		Clients:    buildClients(cfg, respCache, logger, opts.force),
		BatchSize:  cfg.Enrich.BatchSize,
		BatchDelay: cfg.Enrich.BatchDelay.Duration,
		Logger:     logger,
	})

	if opts.dryRun {
		printWarning(out, "Dry run: records and refresh state will not be written")
	}
	logger.Debug("starting fetch", "target", target, "force", opts.force, "cache", describeCache(cfg))

	prog := newProgress(logger)
	stats, err := orch.Run(ctx, enrich.Options{
		Force:  opts.force,
		Kinds:  fetchTargets[target],
		DryRun: opts.dryRun,
		Target: target,
	})
	printRunStats(out, stats)
	if err != nil {
		printError(out, "Fetch %s failed", target)
		return err
	}
	if !stats.Idle {
		prog.done(fmt.Sprintf("Fetched %s", target))
	}
	return nil
}

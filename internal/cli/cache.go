package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/curator/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache <stats|clean|clear|help>",
		Short: "Manage the HTTP response cache",
		Long: `Manage the HTTP response cache.

  stats   show the number of entries and their total size
  clean   remove expired and corrupt entries
  clear   remove every entry`,
		// Subcommands are matched by cobra; anything left over is unknown.
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown cache command %q (valid: stats, clean, clear, help)", args[0])
		},
	}

	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cacheCleanCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "help",
		Short: "Show cache command usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Parent().Help()
		},
	})

	return cmd
}

// withCache opens the configured cache, runs fn and closes the cache.
func (c *CLI) withCache(cmd *cobra.Command, fn func(cache.Cache) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := openCache(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(store cache.Cache) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, StyleTitle.Render("Response cache"))
				printKeyValue(out, "Location", describeCache(c.cfg))
				printKeyValue(out, "Entries", fmt.Sprintf("%d", stats.Total))
				printKeyValue(out, "Size", formatBytes(stats.SizeBytes))
				return nil
			})
		},
	}
}

func (c *CLI) cacheCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(store cache.Cache) error {
				s := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Removing expired entries...")
				s.Start()
				n, err := store.CleanExpired(cmd.Context())
				s.Stop()
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Removed %d expired entries", n)
				return nil
			})
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(store cache.Cache) error {
				s := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Clearing cache...")
				s.Start()
				n, err := store.Clear(cmd.Context())
				s.Stop()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if n == 0 {
					printInfo(out, "Cache is empty")
					return nil
				}
				printSuccess(out, "Cleared %d cached entries", n)
				printDetail(out, "Location: %s", describeCache(c.cfg))
				return nil
			})
		},
	}
}

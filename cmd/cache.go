package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the workbook cache",
}

// -- cache list --

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached workbooks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		c, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		entries, err := c.ListWorkbooks(ctx)
		if err != nil {
			return eris.Wrap(err, "cache list")
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cache is empty.")
			return nil
		}
		formatCacheList(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

// -- cache prune --

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		c, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		n, err := c.DeleteExpired(ctx)
		if err != nil {
			return eris.Wrap(err, "cache prune")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// formatCacheList writes cache entry metadata to w.
func formatCacheList(out io.Writer, entries []store.CachedWorkbook, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "URL\tETAG\tSIZE\tFETCHED\tEXPIRES\tSTATUS")
	for _, e := range entries {
		status := "fresh"
		if e.Expired(now) {
			status = "expired"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.URL,
			dash(e.ETag),
			e.Size,
			e.FetchedAt.UTC().Format(time.RFC3339),
			e.ExpiresAt.UTC().Format(time.RFC3339),
			status,
		)
	}
	_ = w.Flush()
}

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
)

var selfReportedCmd = &cobra.Command{
	Use:   "self-reported <tab>",
	Short: "Show one self-reported results tab",
	Long:  "Shows a self-reported sheet in its original order. Tabs: " + tabNames() + ". Sheet names such as A11y_tree are accepted too.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tab, err := leaderboard.ParseTab(args[0])
		if err != nil {
			return err
		}
		if tab == leaderboard.TabVerified {
			return eris.New("the Verified tab is shown by the verified command")
		}

		env, err := initEnv(ctx, "cli", nil)
		if err != nil {
			return err
		}
		defer env.Close()

		tabs, err := env.Loader.SelfReported(ctx)
		if err != nil {
			return eris.Wrap(err, "self-reported")
		}
		entries := leaderboard.SelfReportedEntries(tabs[tab])

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No rows in %s.\n", tab)
			return nil
		}
		formatSelfReported(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	selfReportedCmd.Flags().Bool("json", false, "print JSON instead of a table")
	rootCmd.AddCommand(selfReportedCmd)
}

func formatSelfReported(out io.Writer, entries []leaderboard.SelfReportedEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tMODEL\tINSTITUTION\tDATE\tSCORE\tSOURCE")
	for _, e := range entries {
		src := "-"
		if e.Source != nil {
			src = e.Source.Label + " <" + e.Source.URL + ">"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Rank,
			dash(e.Model),
			dash(e.Institution),
			dash(e.Date),
			dash(e.Score),
			src,
		)
	}
	_ = w.Flush()
}

// tabNames lists every self-reported tab label.
func tabNames() string {
	names := make([]string, 0, len(leaderboard.SelfReportedTabs))
	for _, t := range leaderboard.SelfReportedTabs {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

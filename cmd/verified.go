package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
)

var verifiedCmd = &cobra.Command{
	Use:   "verified",
	Short: "Show the verified leaderboard",
	Long:  "Aggregates every verified run per model and max-steps configuration, then applies scope, filters, search, and sort.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts, err := viewOptionsFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "cli", nil)
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Loader.Verified(ctx)
		if err != nil {
			return eris.Wrap(err, "verified")
		}
		view := leaderboard.View(records, opts)

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(out, view)
		}
		if len(view) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No results match the current filters.")
			return nil
		}
		breakdown, _ := cmd.Flags().GetBool("breakdown")
		formatVerified(out, view, breakdown)
		return nil
	},
}

func init() {
	addViewFlags(verifiedCmd.Flags())
	verifiedCmd.Flags().Bool("breakdown", false, "show per-run category breakdowns")
	verifiedCmd.Flags().Bool("json", false, "print JSON instead of a table")
	rootCmd.AddCommand(verifiedCmd)
}

// addViewFlags registers the leaderboard view controls on fs.
func addViewFlags(fs *pflag.FlagSet) {
	fs.String("scope", "all", "leaderboard scope (all, foundation)")
	fs.String("sort", "score", "sort order (score, date, model)")
	fs.StringSlice("approach", nil, "approach types to show (default all; pass an empty value to show none)")
	fs.String("max-steps", "", "only show this max-steps value")
	fs.Bool("no-a11y", false, "hide entries using an additional a11y tree")
	fs.Bool("no-tool", false, "hide entries using additional coding-based actions")
	fs.Bool("no-rollout", false, "hide entries using multiple rollouts")
	fs.Bool("no-retry", false, "hide entries using retry or self-verification")
	fs.String("search", "", "case-insensitive match on model, institution, or approach")
}

// viewOptionsFromFlags reads the view controls. An unset --approach selects
// every approach.
func viewOptionsFromFlags(fs *pflag.FlagSet) (leaderboard.ViewOptions, error) {
	opts := leaderboard.DefaultViewOptions()

	scope, _ := fs.GetString("scope")
	s, err := leaderboard.ParseScope(scope)
	if err != nil {
		return opts, err
	}
	opts.Scope = s

	sortBy, _ := fs.GetString("sort")
	by, err := leaderboard.ParseSortBy(sortBy)
	if err != nil {
		return opts, err
	}
	opts.SortBy = by

	if fs.Changed("approach") {
		approaches, _ := fs.GetStringSlice("approach")
		opts.Approaches = append([]string{}, approaches...)
	}

	opts.MaxSteps, _ = fs.GetString("max-steps")
	opts.Query, _ = fs.GetString("search")

	noA11y, _ := fs.GetBool("no-a11y")
	noTool, _ := fs.GetBool("no-tool")
	noRollout, _ := fs.GetBool("no-rollout")
	noRetry, _ := fs.GetBool("no-retry")
	opts.IncludeA11yTree = !noA11y
	opts.IncludeTool = !noTool
	opts.IncludeMultipleRollout = !noRollout
	opts.IncludeRetry = !noRetry

	return opts, nil
}

// formatVerified writes the ranked leaderboard to w. With breakdown, each
// record with category columns is followed by its per-run values.
func formatVerified(out io.Writer, records []leaderboard.Record, breakdown bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tMODEL\tINSTITUTION\tAPPROACH\tSTEPS\tDATE\tSCORE\tRUNS\tPROVIDER\tSOURCE")
	for i, r := range records {
		model := r.Model
		if leaderboard.IsHumanBaseline(r) {
			model += " *"
		}
		_, _ = fmt.Fprintf(w, "%02d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i+1,
			model,
			dash(r.Institution),
			dash(r.ApproachType),
			dash(r.MaxSteps),
			dash(r.DateLabel),
			leaderboard.ScoreLabel(r),
			r.RunCount,
			leaderboard.RecordProvider(r),
			dash(leaderboard.PrimarySourceURL(r)),
		)
	}
	_ = w.Flush()

	if !breakdown {
		return
	}
	for _, r := range records {
		if len(r.CategoryColumns) == 0 || len(r.Runs) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(out, "\n%s (%s steps)\n", r.Model, dash(r.MaxSteps))
		formatBreakdown(out, r)
	}
}

func formatBreakdown(out io.Writer, r leaderboard.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\t"+strings.Join(r.CategoryColumns, "\t"))
	for i, run := range r.Runs {
		cells := make([]string, 0, len(r.CategoryColumns))
		for _, col := range r.CategoryColumns {
			cells = append(cells, dash(run.CategoryValues[col]))
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\n", i+1, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
)

// filterOptions are the choices offered by the leaderboard filters.
type filterOptions struct {
	Scope          leaderboard.Scope `json:"scope"`
	ApproachTypes  []string          `json:"approachTypes"`
	MaxStepOptions []string          `json:"maxStepOptions"`
}

func newFilterOptions(records []leaderboard.Record, scope leaderboard.Scope) filterOptions {
	scoped := leaderboard.Scoped(records, scope)
	return filterOptions{
		Scope:          scope,
		ApproachTypes:  leaderboard.ApproachTypes(scoped),
		MaxStepOptions: leaderboard.MaxStepOptions(scoped),
	}
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the approach types and max-steps values available for filtering",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		scopeName, _ := cmd.Flags().GetString("scope")
		scope, err := leaderboard.ParseScope(scopeName)
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
			return eris.Wrap(err, "options")
		}

		opts := newFilterOptions(records, scope)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), opts)
		}
		formatOptions(cmd.OutOrStdout(), opts)
		return nil
	},
}

func init() {
	optionsCmd.Flags().String("scope", "all", "leaderboard scope (all, foundation)")
	optionsCmd.Flags().Bool("json", false, "print JSON instead of text")
	rootCmd.AddCommand(optionsCmd)
}

func formatOptions(out io.Writer, opts filterOptions) {
	_, _ = fmt.Fprintf(out, "Scope:      %s\n", opts.Scope)
	_, _ = fmt.Fprintf(out, "Approaches: %s\n", dash(strings.Join(opts.ApproachTypes, ", ")))
	_, _ = fmt.Fprintf(out, "Max steps:  %s\n", dash(strings.Join(opts.MaxStepOptions, ", ")))
}

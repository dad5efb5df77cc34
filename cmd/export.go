package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full dataset as JSON",
	Long:  "Loads both workbooks and writes the aggregated verified records and every self-reported tab as one JSON document.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli", nil)
		if err != nil {
			return err
		}
		defer env.Close()

		ds, err := env.Loader.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		outPath, _ := cmd.Flags().GetString("out")
		if outPath == "" || outPath == "-" {
			return writeJSON(cmd.OutOrStdout(), ds)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", outPath)
		}
		if err := writeJSON(f, ds); err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "export: write %s", outPath)
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "export: close %s", outPath)
		}

		zap.L().Info("dataset exported",
			zap.String("path", outPath),
			zap.Int("verified", len(ds.Verified)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

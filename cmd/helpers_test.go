//go:build !integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

func writeXLSX(t *testing.T, path string, sheets map[string][][]any, order ...string) {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range order {
		sh, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range sheets[name] {
			row := sh.AddRow()
			for _, v := range rowData {
				cell := row.AddCell()
				switch x := v.(type) {
				case string:
					cell.SetString(x)
				case float64:
					cell.SetFloat(x)
				case nil:
				default:
					t.Fatalf("unsupported cell %T", v)
				}
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// setupWorkspace chdirs into a temp dir holding both workbooks and a
// config.yaml pointing at them, plus any extra YAML appended.
func setupWorkspace(t *testing.T, extraYAML string) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	writeXLSX(t, filepath.Join(dir, "verified.xlsx"), map[string][][]any{
		"Sheet1": {
			{"Model", "Institution", "Approach type", "Max steps", "Date", "Success rate", "Retry", "Chrome"},
			{"Agent S3", "Simular", "Agentic framework", 100.0, "2025-10-01", 60.0, "Yes", 50.0},
			{"Agent S3", "Simular", "Agentic framework", 100.0, "2025-10-03", 64.0, "No", 54.0},
			{"UI-TARS", "ByteDance", "Specialized model", 50.0, "2025-09-01", 42.5, "No", 40.0},
		},
	}, "Sheet1")
	writeXLSX(t, filepath.Join(dir, "self.xlsx"), map[string][][]any{
		"Screenshot": {
			{"Model", "Institution", "Date", "Score", "PaperLink"},
			{"m1", "Org", "2024-04-01", 12.24, "https://example.com/m1"},
		},
		"Set-of-Mark": {
			{"Model", "Success rate"},
			{"m2", 20.0},
		},
	}, "Screenshot", "Set-of-Mark")

	config := "sources:\n" +
		"  verified_url: " + filepath.Join(dir, "verified.xlsx") + "\n" +
		"  self_reported_url: file://" + filepath.Join(dir, "self.xlsx") + "\n" +
		"log:\n  level: error\n" +
		extraYAML
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o644))
	return dir
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testRecords() []leaderboard.Record {
	rows := []sheet.Row{
		sheet.NewRow(
			sheet.F("Model", sheet.String("Agent S3")),
			sheet.F("Institution", sheet.String("Simular")),
			sheet.F("Approach type", sheet.String(leaderboard.ApproachAgentic)),
			sheet.F("Max steps", sheet.Number(100)),
			sheet.F("Date", sheet.String("2025-10-03")),
			sheet.F("PaperLink", sheet.String("https://example.com/s3")),
			sheet.F("Success rate", sheet.Number(62)),
			sheet.F("Chrome", sheet.Number(55)),
		),
		sheet.NewRow(
			sheet.F("Model", sheet.String("Human Baseline")),
			sheet.F("Institution", sheet.String("Reference baseline")),
			sheet.F("Approach type", sheet.String(leaderboard.ApproachSpecialized)),
			sheet.F("Max steps", sheet.Number(100)),
			sheet.F("Date", sheet.String("2026-02-22")),
			sheet.F("Success rate", sheet.Number(72.36)),
		),
		sheet.NewRow(
			sheet.F("Model", sheet.String("GPT-4o")),
			sheet.F("Institution", sheet.String("OpenAI")),
			sheet.F("Approach type", sheet.String(leaderboard.ApproachGeneral)),
			sheet.F("Max steps", sheet.Number(15)),
			sheet.F("Date", sheet.String("2024-05-13")),
			sheet.F("Success rate", sheet.Number(5)),
			sheet.F("Additional a11y tree used", sheet.String("Yes")),
		),
	}
	return leaderboard.Aggregate(rows)
}

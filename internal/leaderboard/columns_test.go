package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

func TestDiscoverColumns(t *testing.T) {
	rows := []sheet.Row{
		verifiedRow(t,
			"Model", "M", "Max steps", 100, "Success rate", 1,
			"Additional a11y tree used", "No",
			"Additional tool used", "No",
			"Chrome", 10,
		),
		verifiedRow(t,
			"Model", "N", "Success rate", 2,
			"Retry/Self-Verification", "Yes",
			"multiple rollout", "No",
			"GIMP", 3,
			"PaperLinks", []sheet.Link{{Label: "a", URL: "b"}},
		),
	}

	cols := DiscoverColumns(rows)
	assert.Equal(t, "Additional a11y tree used", cols.A11yTree)
	assert.Equal(t, "Additional tool used", cols.Tool)
	assert.Equal(t, "multiple rollout", cols.MultipleRollout)
	assert.Equal(t, "Retry/Self-Verification", cols.Retry)
	assert.Equal(t, []string{"Chrome", "GIMP"}, cols.Category)
}

func TestDiscoverColumns_AliasPriority(t *testing.T) {
	rows := []sheet.Row{
		verifiedRow(t, "Retry", "No", "Retry / Self-Verification", "Yes", "Additional coding-based action", "Yes", "Additional tool used", "No"),
	}

	cols := DiscoverColumns(rows)
	assert.Equal(t, "Retry / Self-Verification", cols.Retry)
	assert.Equal(t, "Additional coding-based action", cols.Tool)
	// Only the winning alias is excluded; the losing column is a category.
	assert.Equal(t, []string{"Retry", "Additional tool used"}, cols.Category)
}

func TestDiscoverColumns_Unresolved(t *testing.T) {
	cols := DiscoverColumns([]sheet.Row{verifiedRow(t, "Model", "M", "Notes", "x")})
	assert.Empty(t, cols.A11yTree)
	assert.Empty(t, cols.Tool)
	assert.Empty(t, cols.MultipleRollout)
	assert.Empty(t, cols.Retry)
	assert.Equal(t, []string{"Notes"}, cols.Category)
}

func TestDiscoverColumns_Empty(t *testing.T) {
	cols := DiscoverColumns(nil)
	assert.Equal(t, []string{}, cols.Category)
}

func TestDiscoverColumns_MetadataCaseSensitive(t *testing.T) {
	// Metadata names are exact; a differently cased column is a category.
	cols := DiscoverColumns([]sheet.Row{verifiedRow(t, "model", "m", "Model", "M")})
	assert.Equal(t, []string{"model"}, cols.Category)
}

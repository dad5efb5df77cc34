// Package leaderboard turns verified and self-reported benchmark rows into
// ranked leaderboard records. Everything here is pure: no I/O, no retained
// state, and inputs are never mutated.
package leaderboard

import "github.com/sells-group/leaderboard-cli/internal/sheet"

// Well-known verified-sheet columns.
const (
	ColModel        = "Model"
	ColApproachType = "Approach type"
	ColMaxSteps     = "Max steps"
	ColInstitution  = "Institution"
	ColDate         = "Date"
	ColSuccessRate  = "Success rate"
	ColScore        = "Score"
)

// metadataColumns never appear as breakdown categories.
var metadataColumns = map[string]bool{
	ColModel:              true,
	ColApproachType:       true,
	ColMaxSteps:           true,
	ColInstitution:        true,
	ColDate:               true,
	sheet.ColPaperLink:    true,
	sheet.ColPaperAuthors: true,
	sheet.ColPaperLinks:   true,
	ColSuccessRate:        true,
}

// Capability-flag column aliases, matched case-insensitively.
var (
	a11yTreeAliases        = []string{"additional a11y tree used"}
	toolAliases            = []string{"additional coding-based action", "additional tool used"}
	multipleRolloutAliases = []string{"multiple rollout"}
	retryAliases           = []string{"retry / self-verification", "retry/self-verification", "retry", "self-verification"}
)

// Columns is the column vocabulary of one verified batch. Flag fields hold
// the actual column name, or "" when the batch has no such column.
type Columns struct {
	Category        []string
	A11yTree        string
	Tool            string
	MultipleRollout string
	Retry           string
}

// DiscoverColumns computes the column vocabulary over every row of a batch.
// Columns keep their first-seen order.
func DiscoverColumns(rows []sheet.Row) Columns {
	seen := make(map[string]bool)
	var all []string
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				all = append(all, k)
			}
		}
	}

	var cols Columns
	cols.A11yTree, _ = sheet.Resolve(all, a11yTreeAliases...)
	cols.Tool, _ = sheet.Resolve(all, toolAliases...)
	cols.MultipleRollout, _ = sheet.Resolve(all, multipleRolloutAliases...)
	cols.Retry, _ = sheet.Resolve(all, retryAliases...)

	flags := map[string]bool{}
	for _, c := range []string{cols.A11yTree, cols.Tool, cols.MultipleRollout, cols.Retry} {
		if c != "" {
			flags[c] = true
		}
	}

	cols.Category = []string{}
	for _, c := range all {
		if metadataColumns[c] || flags[c] {
			continue
		}
		cols.Category = append(cols.Category, c)
	}
	return cols
}

// flag reports whether row marks the given flag column as affirmative.
// An unresolved column never matches.
func (c Columns) flag(row sheet.Row, column string) bool {
	return column != "" && sheet.IsYesLike(row.Get(column))
}

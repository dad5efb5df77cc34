package leaderboard

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

// Tab is one display tab. TabVerified shows the verified leaderboard; the
// others each show one self-reported sheet.
type Tab string

const (
	TabVerified           Tab = "Verified"
	TabScreenshot         Tab = "Screenshot"
	TabA11yTree           Tab = "A11y tree"
	TabScreenshotA11yTree Tab = "Screenshot + A11y tree"
	TabSetOfMark          Tab = "Set-of-Mark"
)

// TabOrder is the display order of all tabs.
var TabOrder = []Tab{TabVerified, TabScreenshot, TabA11yTree, TabScreenshotA11yTree, TabSetOfMark}

// SelfReportedTabs are the tabs backed by a self-reported sheet, in order.
var SelfReportedTabs = []Tab{TabScreenshot, TabA11yTree, TabScreenshotA11yTree, TabSetOfMark}

// SheetNameByTab maps each self-reported tab to its workbook sheet.
var SheetNameByTab = map[Tab]string{
	TabScreenshot:         "Screenshot",
	TabA11yTree:           "A11y_tree",
	TabScreenshotA11yTree: "Screenshot_A11y_tree",
	TabSetOfMark:          "Set-of-Mark",
}

// ParseTab accepts a tab label or sheet name in any case.
func ParseTab(s string) (Tab, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, t := range TabOrder {
		if strings.ToLower(string(t)) == want || strings.ToLower(SheetNameByTab[t]) == want {
			return t, nil
		}
	}
	if near, ok := closestTab(want); ok {
		return "", eris.Errorf("unknown tab %q (did you mean %q?)", s, near)
	}
	return "", eris.Errorf("unknown tab %q", s)
}

// closestTab finds the tab whose label or sheet name is within a few edits
// of want.
func closestTab(want string) (Tab, bool) {
	if want == "" {
		return "", false
	}
	best, bestDist := Tab(""), -1
	for _, t := range TabOrder {
		for _, name := range []string{string(t), SheetNameByTab[t]} {
			if name == "" {
				continue
			}
			d := levenshtein.ComputeDistance(want, strings.ToLower(name))
			if bestDist < 0 || d < bestDist {
				best, bestDist = t, d
			}
		}
	}
	return best, bestDist <= max(2, len(want)/3)
}

// defaultSelfReportedLinkLabel labels a self-reported row link without authors.
const defaultSelfReportedLinkLabel = "Source"

// FormatSelfReportedScore renders the score of an unaggregated row. The
// Score column is preferred over Success rate; a value that is not numeric
// is shown as written.
func FormatSelfReportedScore(row sheet.Row) string {
	v := row.Get(ColScore)
	if v.IsEmpty() {
		v = row.Get(ColSuccessRate)
	}
	if n, ok := sheet.ToNumber(v); ok {
		return sheet.FormatNumber(n)
	}
	return sheet.ToString(v)
}

// SelfReportedEntry is one display row of a self-reported tab.
type SelfReportedEntry struct {
	Rank        int         `json:"rank"`
	Model       string      `json:"model"`
	Institution string      `json:"institution"`
	Date        string      `json:"date"`
	Source      *sheet.Link `json:"source,omitempty"`
	Score       string      `json:"score"`
}

// SelfReportedEntries formats rows in sheet order. Rank is the 1-based
// position; no grouping or sorting is applied.
func SelfReportedEntries(rows []sheet.Row) []SelfReportedEntry {
	out := make([]SelfReportedEntry, 0, len(rows))
	for i, row := range rows {
		e := SelfReportedEntry{
			Rank:        i + 1,
			Model:       sheet.ToString(row.Get(ColModel)),
			Institution: sheet.ToString(row.Get(ColInstitution)),
			Date:        sheet.ToString(row.Get(ColDate)),
			Score:       FormatSelfReportedScore(row),
		}
		if url := sheet.ToString(row.Get(sheet.ColPaperLink)); url != "" {
			label := sheet.ToString(row.Get(sheet.ColPaperAuthors))
			if label == "" {
				label = defaultSelfReportedLinkLabel
			}
			e.Source = &sheet.Link{Label: label, URL: url}
		}
		out = append(out, e)
	}
	return out
}

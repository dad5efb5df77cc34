package leaderboard

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

// Flag column names used when a curated entry is turned into a row.
const (
	ColAdditionalA11yTree = "Additional a11y tree used"
	ColAdditionalTool     = "Additional coding-based action"
	ColMultipleRollout    = "Multiple rollout"
	ColRetry              = "Retry / Self-Verification"
)

// CuratedEntry is a manually maintained verified result with the same shape
// as a spreadsheet row.
type CuratedEntry struct {
	Model           string       `yaml:"model"`
	Institution     string       `yaml:"institution"`
	PaperLink       string       `yaml:"paper_link"`
	PaperAuthors    string       `yaml:"paper_authors"`
	PaperLinks      []sheet.Link `yaml:"paper_links"`
	ApproachType    string       `yaml:"approach_type"`
	MaxSteps        float64      `yaml:"max_steps"`
	A11yTree        string       `yaml:"additional_a11y_tree"`
	Tool            string       `yaml:"additional_tool"`
	MultipleRollout string       `yaml:"multiple_rollout"`
	Retry           string       `yaml:"retry"`
	Date            string       `yaml:"date"`
	SuccessRate     float64      `yaml:"success_rate"`
}

// Row converts the entry into a verified row in spreadsheet column order.
// Optional columns that are blank are left out.
func (e CuratedEntry) Row() sheet.Row {
	fields := []sheet.Field{
		sheet.F(ColModel, sheet.String(e.Model)),
		sheet.F(ColInstitution, sheet.String(e.Institution)),
	}
	optional := func(key, v string) {
		if v != "" {
			fields = append(fields, sheet.F(key, sheet.String(v)))
		}
	}
	optional(sheet.ColPaperLink, e.PaperLink)
	optional(sheet.ColPaperAuthors, e.PaperAuthors)
	if len(e.PaperLinks) > 0 {
		fields = append(fields, sheet.F(sheet.ColPaperLinks, sheet.Links(e.PaperLinks)))
	}
	fields = append(fields,
		sheet.F(ColApproachType, sheet.String(e.ApproachType)),
		sheet.F(ColMaxSteps, sheet.Number(e.MaxSteps)),
	)
	optional(ColAdditionalA11yTree, e.A11yTree)
	optional(ColAdditionalTool, e.Tool)
	optional(ColMultipleRollout, e.MultipleRollout)
	optional(ColRetry, e.Retry)
	fields = append(fields,
		sheet.F(ColDate, sheet.String(e.Date)),
		sheet.F(ColSuccessRate, sheet.Number(e.SuccessRate)),
	)
	return sheet.NewRow(fields...)
}

// CuratedRows converts entries into rows, preserving order.
func CuratedRows(entries []CuratedEntry) []sheet.Row {
	rows := make([]sheet.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.Row())
	}
	return rows
}

// curatedFile is the on-disk layout of extra curated entries.
type curatedFile struct {
	Entries []CuratedEntry `yaml:"entries"`
}

// LoadCuratedFile reads additional curated entries from a YAML file.
func LoadCuratedFile(path string) ([]CuratedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "curated: read %s", path)
	}
	var f curatedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "curated: parse %s", path)
	}
	for i, e := range f.Entries {
		if e.Model == "" {
			return nil, eris.Errorf("curated: entry %d in %s has no model", i, path)
		}
	}
	return f.Entries, nil
}

// dedupeKey is the exact model|max steps|date triple of a row.
func dedupeKey(row sheet.Row) string {
	return sheet.RawString(row.Get(ColModel)) + "|" +
		sheet.RawString(row.Get(ColMaxSteps)) + "|" +
		sheet.RawString(row.Get(ColDate))
}

// MergeCurated appends every curated row whose model|max steps|date triple
// is absent from fresh. Fresh rows always come first and are never replaced.
func MergeCurated(fresh, curated []sheet.Row) []sheet.Row {
	present := make(map[string]bool, len(fresh))
	for _, row := range fresh {
		present[dedupeKey(row)] = true
	}

	merged := make([]sheet.Row, 0, len(fresh)+len(curated))
	merged = append(merged, fresh...)
	for _, row := range curated {
		if !present[dedupeKey(row)] {
			merged = append(merged, row)
		}
	}
	return merged
}

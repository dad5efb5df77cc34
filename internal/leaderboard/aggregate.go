package leaderboard

import (
	"math"
	"time"

	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

// Approach types.
const (
	ApproachGeneral     = "General model"
	ApproachSpecialized = "Specialized model"
	ApproachAgentic     = "Agentic framework"
)

// Run is one contributing row's per-category breakdown.
type Run struct {
	CategoryValues map[string]string `json:"categoryValues"`
}

// Record is one leaderboard entry: every verified run of a (model, max steps)
// configuration folded together.
type Record struct {
	ID                    string       `json:"id"`
	Model                 string       `json:"model"`
	Institution           string       `json:"institution"`
	ApproachType          string       `json:"approachType"`
	MaxSteps              string       `json:"maxSteps"`
	Date                  *time.Time   `json:"date"`
	DateLabel             string       `json:"dateLabel"`
	Sources               []sheet.Link `json:"sources"`
	SuccessRateAvg        float64      `json:"successRateAvg"`
	SuccessRateStd        float64      `json:"successRateStd"`
	RunCount              int          `json:"runCount"`
	HasAdditionalA11yTree bool         `json:"hasAdditionalA11yTree"`
	HasAdditionalTool     bool         `json:"hasAdditionalTool"`
	HasMultipleRollout    bool         `json:"hasMultipleRollout"`
	HasRetryStrategy      bool         `json:"hasRetryStrategy"`
	IsFoundationE2E       bool         `json:"isFoundationE2E"`
	CategoryColumns       []string     `json:"categoryColumns"`
	Runs                  []Run        `json:"runs"`
}

// bucket accumulates one group while rows are folded in.
type bucket struct {
	model        string
	institution  string
	approachType string
	maxSteps     string
	date         time.Time
	hasDate      bool
	dateRaw      sheet.Value
	sources      []sheet.Link
	scores       []float64
	a11yTree     bool
	tool         bool
	rollout      bool
	retry        bool
	runs         []Run
}

// GroupKey is the identity of a leaderboard entry.
func GroupKey(model, maxSteps string) string {
	return model + "|" + maxSteps
}

// Aggregate folds verified rows into one record per (model, max steps).
// Rows without a numeric success rate are dropped before anything else, and
// the column vocabulary is computed once over the remaining batch. Records
// come out in the order their group was first seen.
func Aggregate(rows []sheet.Row) []Record {
	valid := make([]sheet.Row, 0, len(rows))
	for _, row := range rows {
		if _, ok := sheet.ToNumber(row.Get(ColSuccessRate)); ok {
			valid = append(valid, row)
		}
	}

	cols := DiscoverColumns(valid)
	return aggregateWith(valid, cols)
}

func aggregateWith(rows []sheet.Row, cols Columns) []Record {
	var order []string
	groups := make(map[string]*bucket)

	for _, row := range rows {
		model := sheet.ToString(row.Get(ColModel))
		maxSteps := sheet.ToString(row.Get(ColMaxSteps))
		key := GroupKey(model, maxSteps)

		b, ok := groups[key]
		if !ok {
			b = &bucket{
				model:        model,
				institution:  sheet.ToString(row.Get(ColInstitution)),
				approachType: sheet.ToString(row.Get(ColApproachType)),
				maxSteps:     maxSteps,
				dateRaw:      row.Get(ColDate),
				sources:      sheet.SourceLinks(row),
			}
			b.date, b.hasDate = sheet.ParseDate(b.dateRaw)
			groups[key] = b
			order = append(order, key)
		}
		b.add(row, cols)
	}

	out := make([]Record, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key].record(cols.Category))
	}
	return out
}

func (b *bucket) add(row sheet.Row, cols Columns) {
	if d, ok := sheet.ParseDate(row.Get(ColDate)); ok && (!b.hasDate || d.After(b.date)) {
		b.date, b.hasDate = d, true
		b.dateRaw = row.Get(ColDate)
		b.sources = sheet.SourceLinks(row)
	}

	if b.institution == "" {
		b.institution = sheet.ToString(row.Get(ColInstitution))
	}
	if b.approachType == "" {
		b.approachType = sheet.ToString(row.Get(ColApproachType))
	}

	if score, ok := sheet.ToNumber(row.Get(ColSuccessRate)); ok {
		b.scores = append(b.scores, score)
	}

	b.a11yTree = b.a11yTree || cols.flag(row, cols.A11yTree)
	b.tool = b.tool || cols.flag(row, cols.Tool)
	b.rollout = b.rollout || cols.flag(row, cols.MultipleRollout)
	b.retry = b.retry || cols.flag(row, cols.Retry)

	values := make(map[string]string, len(cols.Category))
	for _, c := range cols.Category {
		values[c] = sheet.ToString(row.Get(c))
	}
	b.runs = append(b.runs, Run{CategoryValues: values})
}

func (b *bucket) record(categories []string) Record {
	avg := mean(b.scores)

	rec := Record{
		ID:                    sheet.SanitizeID(b.model, b.maxSteps),
		Model:                 b.model,
		Institution:           b.institution,
		ApproachType:          b.approachType,
		MaxSteps:              b.maxSteps,
		DateLabel:             sheet.FormatDateLabel(b.date, b.hasDate, b.dateRaw),
		Sources:               b.sources,
		SuccessRateAvg:        avg,
		SuccessRateStd:        populationStdDev(b.scores, avg),
		RunCount:              len(b.scores),
		HasAdditionalA11yTree: b.a11yTree,
		HasAdditionalTool:     b.tool,
		HasMultipleRollout:    b.rollout,
		HasRetryStrategy:      b.retry,
		IsFoundationE2E:       isFoundation(b.approachType, b.a11yTree, b.tool),
		CategoryColumns:       append([]string{}, categories...),
		Runs:                  b.runs,
	}
	if b.hasDate {
		d := b.date
		rec.Date = &d
	}
	return rec
}

// isFoundation: a plain general or specialized model with no extra
// accessibility-tree input and no extra coding tool.
func isFoundation(approachType string, a11yTree, tool bool) bool {
	if approachType != ApproachGeneral && approachType != ApproachSpecialized {
		return false
	}
	return !a11yTree && !tool
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// populationStdDev divides by N. Zero or one sample gives 0.
func populationStdDev(xs []float64, avg float64) float64 {
	if len(xs) <= 1 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

package leaderboard

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Scope narrows the leaderboard before filtering.
type Scope string

const (
	ScopeAll        Scope = "all"
	ScopeFoundation Scope = "foundation"
)

// ParseScope validates a scope name. Blank means ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeFoundation:
		return ScopeFoundation, nil
	}
	return "", eris.Errorf("unknown scope %q (want all or foundation)", s)
}

// SortBy selects the leaderboard ordering.
type SortBy string

const (
	SortScore SortBy = "score"
	SortDate  SortBy = "date"
	SortModel SortBy = "model"
)

// ParseSortBy validates a sort name. Blank means SortScore.
func ParseSortBy(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortScore:
		return SortScore, nil
	case SortDate:
		return SortDate, nil
	case SortModel:
		return SortModel, nil
	}
	return "", eris.Errorf("unknown sort %q (want score, date, or model)", s)
}

// approachOrder lists the approach types that sort ahead of all others.
var approachOrder = []string{ApproachGeneral, ApproachSpecialized, ApproachAgentic}

// Filter holds the user-chosen leaderboard filters.
type Filter struct {
	SelectedApproaches []string
	MaxSteps           string

	IncludeA11yTree        bool
	IncludeTool            bool
	IncludeMultipleRollout bool
	IncludeRetry           bool

	Scope Scope
}

// DefaultFilter is the cleared filter state for a scope: every approach
// available in the scope, every max-steps value, and every flag included.
func DefaultFilter(scope Scope, records []Record) Filter {
	return Filter{
		SelectedApproaches:     ApproachTypes(Scoped(records, scope)),
		IncludeA11yTree:        true,
		IncludeTool:            true,
		IncludeMultipleRollout: true,
		IncludeRetry:           true,
		Scope:                  scope,
	}
}

// Scoped returns the records visible in scope.
func Scoped(records []Record, scope Scope) []Record {
	if scope != ScopeFoundation {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsFoundationE2E {
			out = append(out, r)
		}
	}
	return out
}

// ApproachTypes lists the distinct non-empty approach types. Known types come
// first in their fixed order; the rest follow alphabetically.
func ApproachTypes(records []Record) []string {
	types := []string{}
	seen := map[string]bool{}
	for _, r := range records {
		if r.ApproachType == "" || seen[r.ApproachType] {
			continue
		}
		seen[r.ApproachType] = true
		types = append(types, r.ApproachType)
	}

	c := newCollator()
	sort.SliceStable(types, func(i, j int) bool {
		a, b := types[i], types[j]
		ia, ib := slices.Index(approachOrder, a), slices.Index(approachOrder, b)
		switch {
		case ia == -1 && ib == -1:
			return c.CompareString(a, b) < 0
		case ia == -1:
			return false
		case ib == -1:
			return true
		}
		return ia < ib
	})
	return types
}

// MaxStepOptions lists the distinct non-empty max-steps values in ascending
// numeric order. Values that are not numbers sort last.
func MaxStepOptions(records []Record) []string {
	steps := []string{}
	seen := map[string]bool{}
	for _, r := range records {
		if r.MaxSteps == "" || seen[r.MaxSteps] {
			continue
		}
		seen[r.MaxSteps] = true
		steps = append(steps, r.MaxSteps)
	}

	c := newCollator()
	sort.SliceStable(steps, func(i, j int) bool {
		a, aErr := strconv.ParseFloat(steps[i], 64)
		b, bErr := strconv.ParseFloat(steps[j], 64)
		switch {
		case aErr != nil && bErr != nil:
			return c.CompareString(steps[i], steps[j]) < 0
		case aErr != nil:
			return false
		case bErr != nil:
			return true
		}
		return a < b
	})
	return steps
}

// ResolveApproaches turns a user selection into the approaches to show. A
// nil selection means every available approach. Otherwise the selection is
// narrowed to what is available, so an explicit empty selection stays empty.
func ResolveApproaches(selected, available []string) []string {
	if selected == nil {
		return append([]string{}, available...)
	}
	out := []string{}
	for _, s := range selected {
		if slices.Contains(available, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// ApplyFilters keeps the records matching f. Nothing is shown when no
// approach is selected. The flag toggles only apply in ScopeAll; foundation
// records never carry the a11y or tool flags.
func ApplyFilters(records []Record, f Filter) []Record {
	if len(f.SelectedApproaches) == 0 {
		return []Record{}
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !slices.Contains(f.SelectedApproaches, r.ApproachType) {
			continue
		}
		if f.MaxSteps != "" && r.MaxSteps != f.MaxSteps {
			continue
		}
		if f.Scope == ScopeAll && excludedByFlags(r, f) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func excludedByFlags(r Record, f Filter) bool {
	return (!f.IncludeA11yTree && r.HasAdditionalA11yTree) ||
		(!f.IncludeTool && r.HasAdditionalTool) ||
		(!f.IncludeMultipleRollout && r.HasMultipleRollout) ||
		(!f.IncludeRetry && r.HasRetryStrategy)
}

// Search keeps records whose model, institution, or approach type contains
// query, ignoring case. A blank query keeps everything.
func Search(records []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		haystack := strings.ToLower(r.Model + " " + r.Institution + " " + r.ApproachType)
		if strings.Contains(haystack, q) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a sorted copy of records. Score and date sort descending; a
// record without a date sorts as the zero instant. Model sorts ascending
// with English collation. The sort is stable.
func Sort(records []Record, by SortBy) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	switch by {
	case SortScore:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].SuccessRateAvg > out[j].SuccessRateAvg
		})
	case SortDate:
		sort.SliceStable(out, func(i, j int) bool {
			return dateMillis(out[i]) > dateMillis(out[j])
		})
	default:
		c := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Model, out[j].Model) < 0
		})
	}
	return out
}

func dateMillis(r Record) int64 {
	if r.Date == nil {
		return 0
	}
	return r.Date.UnixMilli()
}

// newCollator returns a fresh collator; collators are not safe for
// concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.English)
}

// ViewOptions is the full set of leaderboard view controls.
type ViewOptions struct {
	Scope Scope
	// Approaches is the raw user selection; nil selects every approach.
	Approaches []string
	MaxSteps   string

	IncludeA11yTree        bool
	IncludeTool            bool
	IncludeMultipleRollout bool
	IncludeRetry           bool

	Query  string
	SortBy SortBy
}

// DefaultViewOptions is the cleared view: all scope, score order, nothing
// excluded.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{
		Scope:                  ScopeAll,
		IncludeA11yTree:        true,
		IncludeTool:            true,
		IncludeMultipleRollout: true,
		IncludeRetry:           true,
		SortBy:                 SortScore,
	}
}

// View applies scope, filters, search, and sort in that order.
func View(records []Record, opts ViewOptions) []Record {
	scoped := Scoped(records, opts.Scope)
	filtered := ApplyFilters(scoped, Filter{
		SelectedApproaches:     ResolveApproaches(opts.Approaches, ApproachTypes(scoped)),
		MaxSteps:               opts.MaxSteps,
		IncludeA11yTree:        opts.IncludeA11yTree,
		IncludeTool:            opts.IncludeTool,
		IncludeMultipleRollout: opts.IncludeMultipleRollout,
		IncludeRetry:           opts.IncludeRetry,
		Scope:                  opts.Scope,
	})
	return Sort(Search(filtered, opts.Query), opts.SortBy)
}

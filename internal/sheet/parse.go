package sheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from 1899-12-30; 25569 is the serial
// of 1970-01-01.
const (
	serialUnixEpoch = 25569
	secondsPerDay   = 86400

	// maxDateMillis is the largest representable instant magnitude, in ms.
	maxDateMillis = 8.64e15
)

var (
	leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	isoSubstring  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}:\d{2})?)`)
	idUnsafe      = regexp.MustCompile(`[^a-zA-Z0-9-]`)
)

// directLayouts are tried in order before the ISO substring fallback.
// Zone-less layouts are interpreted as UTC.
var directLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/1/2",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// yesValues are the normalized spellings treated as affirmative.
var yesValues = map[string]bool{
	"yes":  true,
	"true": true,
	"1":    true,
	"y":    true,
}

// ToString renders a cell as display text. Empty cells become "" and text is
// trimmed. Numbers use their shortest decimal form.
func ToString(v Value) string {
	switch v.kind {
	case KindString:
		return strings.TrimSpace(v.str)
	case KindNumber:
		return formatNumber(v.num)
	case KindDate:
		return v.date.UTC().Format(time.RFC3339)
	case KindLinks:
		parts := make([]string, 0, len(v.links))
		for _, l := range v.links {
			parts = append(parts, strings.TrimSpace(l.Label+" <"+l.URL+">"))
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// RawString renders a cell like ToString but leaves text untrimmed.
func RawString(v Value) string {
	if v.kind == KindString {
		return v.str
	}
	return ToString(v)
}

// FormatNumber renders f the way ToString renders a numeric cell.
func FormatNumber(f float64) string { return formatNumber(f) }

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToNumber returns the numeric value of a cell. Text cells yield their
// leading numeric prefix, so "70%" is 70. Non-finite results are rejected.
func ToNumber(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		if isFinite(v.num) {
			return v.num, true
		}
		return 0, false
	case KindString:
		prefix := leadingNumber.FindString(strings.TrimLeft(v.str, " \t\n\r\v\f"))
		if prefix == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(prefix, 64)
		if err != nil || !isFinite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsYesLike reports whether a flag cell reads as affirmative.
func IsYesLike(v Value) bool {
	return yesValues[strings.ToLower(ToString(v))]
}

// ParseDate interprets a cell as a calendar instant. Numbers are spreadsheet
// serial dates; text is tried against the direct layouts and then scanned for
// an embedded ISO date. Empty text and "NaT" never parse.
func ParseDate(v Value) (time.Time, bool) {
	if v.kind == KindDate {
		return v.date, true
	}

	if v.kind == KindNumber && isFinite(v.num) {
		ms := (v.num - serialUnixEpoch) * secondsPerDay * 1000
		if math.Abs(ms) <= maxDateMillis {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
	}

	text := ToString(v)
	if text == "" || text == "NaT" {
		return time.Time{}, false
	}

	for _, layout := range directLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	match := isoSubstring.FindString(text)
	if match == "" {
		return time.Time{}, false
	}
	layout := "2006-01-02"
	if len(match) > len(layout) {
		layout = "2006-01-02T15:04:05"
	}
	t, err := time.Parse(layout, match)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateLabel renders a parsed date as "Jan 2, 2006". Without a parsed
// date the raw cell text is returned.
func FormatDateLabel(t time.Time, ok bool, raw Value) string {
	if ok {
		return t.UTC().Format("Jan 2, 2006")
	}
	return ToString(raw)
}

// SanitizeID joins parts with hyphens and replaces anything outside
// [A-Za-z0-9-] with a hyphen.
func SanitizeID(parts ...string) string {
	return idUnsafe.ReplaceAllString(strings.Join(parts, "-"), "-")
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

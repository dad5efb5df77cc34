// Package sheet models loosely typed spreadsheet rows and the scalar
// coercions applied to their cells.
package sheet

import (
	"encoding/json"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindDate
	KindLinks
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindLinks:
		return "links"
	default:
		return "empty"
	}
}

// Link is a labelled citation URL.
type Link struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Value is a single cell. The zero Value is empty.
type Value struct {
	kind  Kind
	str   string
	num   float64
	date  time.Time
	links []Link
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// String wraps a text cell. The text is stored verbatim; trimming happens in ToString.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Date wraps a native date cell.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// Links wraps a list of source links. The slice is copied.
func Links(links []Link) Value {
	cp := make([]Link, len(links))
	copy(cp, links)
	return Value{kind: KindLinks, links: cp}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v holds no value.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Text returns the raw string of a KindString value.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// Float returns the raw number of a KindNumber value.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Time returns the raw time of a KindDate value.
func (v Value) Time() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// LinkList returns a copy of the links of a KindLinks value.
func (v Value) LinkList() ([]Link, bool) {
	if v.kind != KindLinks {
		return nil, false
	}
	cp := make([]Link, len(v.links))
	copy(cp, v.links)
	return cp, true
}

// MarshalJSON encodes the value as its natural JSON counterpart.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if !isFinite(v.num) {
			return json.Marshal(ToString(v))
		}
		return json.Marshal(v.num)
	case KindDate:
		return json.Marshal(v.date.UTC().Format(time.RFC3339))
	case KindLinks:
		return json.Marshal(v.links)
	default:
		return []byte("null"), nil
	}
}

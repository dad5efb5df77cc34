package sheet

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Row is an ordered mapping from column name to cell value. Column names are
// case-sensitive and keep their first-insertion order. A Row is treated as
// immutable: Set returns a modified copy.
type Row struct {
	keys   []string
	values map[string]Value
}

// Field is one column/value pair used to build a Row.
type Field struct {
	Key   string
	Value Value
}

// NewRow builds a Row from fields in order. A repeated key keeps its first
// position and takes the last value.
func NewRow(fields ...Field) Row {
	r := Row{values: make(map[string]Value, len(fields))}
	for _, f := range fields {
		if _, ok := r.values[f.Key]; !ok {
			r.keys = append(r.keys, f.Key)
		}
		r.values[f.Key] = f.Value
	}
	return r
}

// F is shorthand for a Field literal.
func F(key string, v Value) Field { return Field{Key: key, Value: v} }

// Get returns the value stored under key, or Empty.
func (r Row) Get(key string) Value {
	return r.values[key]
}

// Has reports whether key is present.
func (r Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the column names in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.keys) }

// Set returns a copy of r with key set to v.
func (r Row) Set(key string, v Value) Row {
	out := Row{
		keys:   make([]string, len(r.keys), len(r.keys)+1),
		values: make(map[string]Value, len(r.values)+1),
	}
	copy(out.keys, r.keys)
	for k, val := range r.values {
		out.values[k] = val
	}
	if _, ok := out.values[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.values[key] = v
	return out
}

// Lookup returns the value of the first alias that matches one of the row's
// columns case-insensitively after trimming.
func (r Row) Lookup(aliases ...string) (Value, bool) {
	col, ok := Resolve(r.keys, aliases...)
	if !ok {
		return Value{}, false
	}
	return r.values[col], true
}

// Resolve maps aliases onto the actual column names. Matching is
// case-insensitive and trims whitespace; when two columns normalize to the
// same name the later one wins. Aliases are tried in order.
func Resolve(columns []string, aliases ...string) (string, bool) {
	byLower := make(map[string]string, len(columns))
	for _, c := range columns {
		byLower[normalizeKey(c)] = c
	}
	for _, a := range aliases {
		if c, ok := byLower[normalizeKey(a)]; ok {
			return c, true
		}
	}
	return "", false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MarshalJSON encodes the row as a JSON object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

package sheet

import (
	"encoding/json"
	"strings"
)

// Source-link columns.
const (
	ColPaperLinks   = "PaperLinks"
	ColPaperLink    = "PaperLink"
	ColPaperAuthors = "PaperAuthors"
)

// DefaultLinkLabel labels a legacy single link that has no authors text.
const DefaultLinkLabel = "Paper Link"

// SourceLinks extracts the citations of a row. A multi-link PaperLinks cell
// wins when it yields at least one complete link; otherwise the legacy
// PaperLink/PaperAuthors pair is used.
func SourceLinks(row Row) []Link {
	if links := multiLinks(row.Get(ColPaperLinks)); len(links) > 0 {
		return links
	}

	url := ToString(row.Get(ColPaperLink))
	if url == "" {
		return []Link{}
	}

	label := ToString(row.Get(ColPaperAuthors))
	if label == "" {
		label = DefaultLinkLabel
	}
	return []Link{{Label: label, URL: url}}
}

// multiLinks returns the complete links held by a PaperLinks cell. Text cells
// are accepted when they hold a JSON array of {label,url} objects.
func multiLinks(v Value) []Link {
	var raw []Link
	switch v.Kind() {
	case KindLinks:
		raw = v.links
	case KindString:
		text := strings.TrimSpace(v.str)
		if !strings.HasPrefix(text, "[") {
			return nil
		}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil
		}
	default:
		return nil
	}

	out := make([]Link, 0, len(raw))
	for _, l := range raw {
		label := strings.TrimSpace(l.Label)
		url := strings.TrimSpace(l.URL)
		if label == "" || url == "" {
			continue
		}
		out = append(out, Link{Label: label, URL: url})
	}
	return out
}

package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceLinks(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want []Link
	}{
		{
			name: "multi-link wins",
			row: NewRow(
				F(ColPaperLink, String("https://legacy")),
				F(ColPaperLinks, Links([]Link{
					{Label: "Abstract", URL: "https://arxiv.org/abs/1"},
					{Label: "PDF", URL: "https://arxiv.org/pdf/1"},
				})),
			),
			want: []Link{
				{Label: "Abstract", URL: "https://arxiv.org/abs/1"},
				{Label: "PDF", URL: "https://arxiv.org/pdf/1"},
			},
		},
		{
			name: "incomplete entries dropped",
			row: NewRow(F(ColPaperLinks, Links([]Link{
				{Label: "", URL: "https://nolabel"},
				{Label: "ok", URL: " https://ok "},
			}))),
			want: []Link{{Label: "ok", URL: "https://ok"}},
		},
		{
			name: "all incomplete falls back to legacy",
			row: NewRow(
				F(ColPaperLinks, Links([]Link{{Label: "x"}})),
				F(ColPaperLink, String("https://legacy")),
				F(ColPaperAuthors, String("Doe et al.")),
			),
			want: []Link{{Label: "Doe et al.", URL: "https://legacy"}},
		},
		{
			name: "json text cell",
			row:  NewRow(F(ColPaperLinks, String(`[{"label":"Blog","url":"https://blog"}]`))),
			want: []Link{{Label: "Blog", URL: "https://blog"}},
		},
		{
			name: "malformed json text falls back",
			row: NewRow(
				F(ColPaperLinks, String(`[{"label":`)),
				F(ColPaperLink, String("https://legacy")),
			),
			want: []Link{{Label: DefaultLinkLabel, URL: "https://legacy"}},
		},
		{
			name: "default label",
			row:  NewRow(F(ColPaperLink, String("https://legacy"))),
			want: []Link{{Label: DefaultLinkLabel, URL: "https://legacy"}},
		},
		{
			name: "nothing",
			row:  NewRow(F("Model", String("X"))),
			want: []Link{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceLinks(tt.row))
		})
	}
}

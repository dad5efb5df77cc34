package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

func TestScoreLabel(t *testing.T) {
	assert.Equal(t, "80.00±8.16%", ScoreLabel(Record{SuccessRateAvg: 80, SuccessRateStd: 8.16497}))
	assert.Equal(t, "72.50%", ScoreLabel(Record{SuccessRateAvg: 72.5}))
}

func TestIsHumanBaseline(t *testing.T) {
	assert.True(t, IsHumanBaseline(Record{Model: " human BASELINE "}))
	assert.False(t, IsHumanBaseline(Record{Model: "Human Baseline v2"}))
}

func TestProvider(t *testing.T) {
	tests := []struct {
		name                     string
		institution, model, link string
		want                     string
	}{
		{"baseline institution", "Reference baseline", "Human Baseline", "https://www.askui.com/benchmarks", ProviderRobot},
		{"institution keyword", "Anthropic", "Some model", "", "anthropic"},
		{"institution beats model", "Moonshot AI", "GPT-ish", "", "moonshot"},
		{"domain", "", "Mystery", "https://www.openai.com/index", "openai"},
		{"domain beats model", "", "Claude clone", "https://qwen.ai/blog", "qwen"},
		{"model keyword", "Independent", "Qwen2.5-VL", "https://arxiv.org/abs/1", "qwen"},
		{"unknown", "Someone", "Thing", "not a url", ProviderRobot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Provider(tt.institution, tt.model, tt.link))
		})
	}
}

func TestRecordProvider(t *testing.T) {
	r := Record{Model: "Seed", Sources: []sheet.Link{{Label: "x", URL: "https://seed.bytedance.com/en"}}}
	assert.Equal(t, "bytedance", RecordProvider(r))
	assert.Equal(t, "https://seed.bytedance.com/en", PrimarySourceURL(r))
	assert.Empty(t, PrimarySourceURL(Record{}))
}

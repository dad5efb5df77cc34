package leaderboard

import (
	"fmt"
	"net/url"
	"strings"
)

// ScoreLabel renders the mean success rate, with the deviation when runs
// disagree: "80.00±8.16%" or "72.50%".
func ScoreLabel(r Record) string {
	if r.SuccessRateStd > 0 {
		return fmt.Sprintf("%.2f±%.2f%%", r.SuccessRateAvg, r.SuccessRateStd)
	}
	return fmt.Sprintf("%.2f%%", r.SuccessRateAvg)
}

// IsHumanBaseline reports whether r is the human reference row.
func IsHumanBaseline(r Record) bool {
	return strings.EqualFold(strings.TrimSpace(r.Model), "human baseline")
}

// PrimarySourceURL returns the first source URL, or "".
func PrimarySourceURL(r Record) string {
	if len(r.Sources) == 0 {
		return ""
	}
	return r.Sources[0].URL
}

// ProviderRobot is the fallback provider for unrecognized or baseline rows.
const ProviderRobot = "robot"

type providerRule struct {
	provider    string
	institution []string
	model       []string
	domain      []string
}

// providerRules are checked in order, all institutions first, then source
// domains, then model names.
var providerRules = []providerRule{
	{provider: "agi", institution: []string{"agi inc", "agi company"}, domain: []string{"theagi.company"}},
	{provider: "openai", institution: []string{"openai"}, model: []string{"gpt-"}, domain: []string{"openai.com"}},
	{provider: "anthropic", institution: []string{"anthropic"}, model: []string{"claude"}, domain: []string{"anthropic.com"}},
	{provider: "simular", institution: []string{"simular"}, domain: []string{"simular.ai"}},
	{provider: "bytedance", institution: []string{"bytedance", "seed"}, domain: []string{"seed.bytedance.com"}},
	{provider: "qwen", institution: []string{"qwen", "alibaba", "tongyi"}, model: []string{"qwen", "gui-owl"}, domain: []string{"qwen.ai", "qwenlm.github.io"}},
	{provider: "google", institution: []string{"google"}, domain: []string{"google.com"}},
	{provider: "salesforce", institution: []string{"salesforce"}, domain: []string{"salesforce.com"}},
	{provider: "moonshot", institution: []string{"moonshot", "kimi"}, model: []string{"kimi"}, domain: []string{"kimi.com"}},
	{provider: "hku", institution: []string{"university of hong kong", "hku"}, domain: []string{"opencua.xlang.ai"}},
	{provider: "zhipu", institution: []string{"zhipu"}, domain: []string{"cogagent.aminer.cn"}},
	{provider: "shlab", institution: []string{"shanghai ai lab", "shanghai ai laboratory", "nanjing university"}, domain: []string{"osatlas.github.io", "os-copilot.github.io"}},
	{provider: "lenovo", institution: []string{"lenovo"}},
	{provider: "lybic", institution: []string{"lybic"}},
	{provider: "meituan", institution: []string{"meituan"}},
	{provider: "meta", institution: []string{"meta"}, model: []string{"llama"}, domain: []string{"llama.meta.com"}},
	{provider: "uipath", institution: []string{"uipath"}},
	{provider: "askui", institution: []string{"askui"}, domain: []string{"askui.com"}},
	{provider: "baai", institution: []string{"baai"}, domain: []string{"baai-agents.github.io", "baai.ac.cn"}},
	{provider: "bigai", institution: []string{"bigai", "datacanvas"}},
	{provider: "smartmore", institution: []string{"smartmore"}},
	{provider: "evolution", institution: []string{"evolution intelligence"}},
	{provider: "gair", institution: []string{"gair"}, domain: []string{"plms.ai", "gair-nlp.github.io"}},
	{provider: "gbox", institution: []string{"gbox"}},
	{provider: "microsoft", institution: []string{"microsoft"}},
	{provider: "mininglamp", institution: []string{"mininglamp"}},
	{provider: "opengvlab", institution: []string{"opengvlab"}, domain: []string{"internvl.github.io"}},
	{provider: "openbmb", institution: []string{"openbmb", "minicpm-v team"}, domain: []string{"openbmb.cn"}},
	{provider: "openinterpreter", institution: []string{"openinterpreter"}, domain: []string{"openinterpreter.com"}},
	{provider: "mistral", institution: []string{"mistral"}, domain: []string{"mistral.ai"}},
	{provider: "mila", institution: []string{"mila", "universite de montreal"}},
	{provider: "tsinghua", institution: []string{"tsinghua"}},
	{provider: "antgroup", institution: []string{"inclusionai", "ant group"}},
	{provider: "allenai", institution: []string{"allenai", "ai2"}},
	{provider: "arcee", institution: []string{"arcee"}},
	{provider: "xiaomi", institution: []string{"xiaomi"}},
	{provider: "baidu", institution: []string{"baidu"}},
	{provider: "prime-intellect", institution: []string{"prime intellect"}},
}

// Provider classifies who built a model, for icon selection. Institution
// keywords win over the source domain, which wins over the model name.
func Provider(institution, model, sourceURL string) string {
	inst := strings.ToLower(strings.TrimSpace(institution))
	name := strings.ToLower(strings.TrimSpace(model))
	domain := sourceDomain(sourceURL)

	if strings.Contains(inst, "reference baseline") || strings.Contains(name, "human baseline") {
		return ProviderRobot
	}
	for _, r := range providerRules {
		if containsAny(inst, r.institution) {
			return r.provider
		}
	}
	for _, r := range providerRules {
		if containsAny(domain, r.domain) {
			return r.provider
		}
	}
	for _, r := range providerRules {
		if containsAny(name, r.model) {
			return r.provider
		}
	}
	return ProviderRobot
}

// RecordProvider classifies a leaderboard record.
func RecordProvider(r Record) string {
	return Provider(r.Institution, r.Model, PrimarySourceURL(r))
}

func sourceDomain(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func containsAny(target string, keywords []string) bool {
	if target == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(target, k) {
			return true
		}
	}
	return false
}

package leaderboard

import "github.com/sells-group/leaderboard-cli/internal/sheet"

const (
	no  = "No"
	yes = "Yes"
)

// BuiltinCurated returns the manually maintained verified entries that
// supplement the live spreadsheet. A fresh slice is returned on every call.
func BuiltinCurated() []CuratedEntry {
	return []CuratedEntry{
		{
			Model:           "AGI Inc. OSAgent",
			Institution:     "AGI Inc. (The AGI Company)",
			PaperLink:       "https://www.theagi.company/blog/osworld",
			PaperAuthors:    "The World's Most Capable Computer Agent",
			ApproachType:    ApproachSpecialized,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: yes,
			Retry:           yes,
			Date:            "2026-02-22",
			SuccessRate:     76.26,
		},
		{
			Model:           "Human Baseline",
			Institution:     "Reference baseline",
			PaperLink:       "https://www.askui.com/benchmarks",
			PaperAuthors:    "Human expert average",
			ApproachType:    ApproachSpecialized,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     72.36,
		},
		{
			Model:           "Claude Opus 4.6",
			Institution:     "Anthropic",
			PaperLink:       "https://www.anthropic.com/news/claude-opus-4-6",
			PaperAuthors:    "Introducing Claude Opus 4.6",
			ApproachType:    ApproachGeneral,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     72.7,
		},
		{
			Model:           "Claude Sonnet 4.6",
			Institution:     "Anthropic",
			PaperLink:       "https://www.anthropic.com/news/claude-sonnet-4-6",
			PaperAuthors:    "Introducing Claude Sonnet 4.6",
			ApproachType:    ApproachGeneral,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     72.5,
		},
		{
			Model:           "AskUI VisionAgent",
			Institution:     "AskUI",
			PaperLink:       "https://www.askui.com/benchmarks",
			PaperAuthors:    "AskUI Benchmarks",
			ApproachType:    ApproachSpecialized,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     66.2,
		},
		{
			Model:           "Kimi K2.5 (Thinking)",
			Institution:     "Moonshot AI",
			PaperLink:       "https://www.kimi.com/blog/kimi-k2-5.html",
			PaperAuthors:    "Kimi K2.5 Tech Blog",
			ApproachType:    ApproachGeneral,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     63.3,
		},
		{
			Model:        "Seed-1.8 (ByteDance)",
			Institution:  "ByteDance Seed",
			PaperLink:    "https://lf3-static.bytednsdoc.com/obj/eden-cn/lapzild-tss/ljhwZthlaukjlkulzlp/research/Seed-1.8-Modelcard.pdf",
			PaperAuthors: "Seed-1.8 resources",
			PaperLinks: []sheet.Link{
				{Label: "Seed-1.8 Model Card (PDF)", URL: "https://lf3-static.bytednsdoc.com/obj/eden-cn/lapzild-tss/ljhwZthlaukjlkulzlp/research/Seed-1.8-Modelcard.pdf"},
				{Label: "Official Release Blog", URL: "https://seed.bytedance.com/en/blog/official-release-of-seed1-8-a-generalized-agentic-model"},
			},
			ApproachType:    ApproachGeneral,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     61.9,
		},
		{
			Model:           "EvoCUA (Meituan)",
			Institution:     "Meituan LongCat Team",
			PaperLink:       "https://arxiv.org/abs/2601.15876",
			PaperAuthors:    "LongCat Team",
			ApproachType:    ApproachGeneral,
			MaxSteps:        50,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     56.7,
		},
		{
			Model:        "OpenAI GPT-5.2",
			Institution:  "OpenAI",
			PaperLink:    "https://openai.com/index/introducing-gpt-5-2/",
			PaperAuthors: "OpenAI technical posts",
			PaperLinks: []sheet.Link{
				{Label: "Introducing GPT-5.2", URL: "https://openai.com/index/introducing-gpt-5-2/"},
				{Label: "Model Release Notes (Feb 2026)", URL: "https://help.openai.com/en/articles/9624314-model-release-notes"},
			},
			ApproachType:    ApproachGeneral,
			MaxSteps:        100,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2026-02-22",
			SuccessRate:     38.2,
		},
		{
			Model:        "UltraCUA-32B-RL",
			Institution:  "Apple; The University of Hong Kong",
			PaperLink:    "https://arxiv.org/abs/2510.17790",
			PaperAuthors: "Yang et al., 2025",
			PaperLinks: []sheet.Link{
				{Label: "arXiv Abstract", URL: "https://arxiv.org/abs/2510.17790"},
				{Label: "arXiv PDF (v2)", URL: "https://arxiv.org/pdf/2510.17790v2"},
			},
			ApproachType:    ApproachAgentic,
			MaxSteps:        15,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2025-12-10",
			SuccessRate:     41,
		},
		{
			Model:        "UltraCUA-7B-RL",
			Institution:  "Apple; The University of Hong Kong",
			PaperLink:    "https://arxiv.org/abs/2510.17790",
			PaperAuthors: "Yang et al., 2025",
			PaperLinks: []sheet.Link{
				{Label: "arXiv Abstract", URL: "https://arxiv.org/abs/2510.17790"},
				{Label: "arXiv PDF (v2)", URL: "https://arxiv.org/pdf/2510.17790v2"},
			},
			ApproachType:    ApproachAgentic,
			MaxSteps:        15,
			A11yTree:        no,
			Tool:            no,
			MultipleRollout: no,
			Date:            "2025-12-10",
			SuccessRate:     28.9,
		},
	}
}

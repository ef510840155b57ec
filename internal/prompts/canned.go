package prompts

import (
	"context"
	"slices"
)

var cannedPrompts = []Prompt{
	{
		ID:       "1",
		Prompt:   "What are the best AI SEO companies in Germany right now?",
		Category: "Integration",
		Selected: true,
		Queries: []string{
			"best AI SEO companies Germany 2024",
			"top AI SEO agencies Germany",
			"leading AI SEO service providers Germany",
		},
	},
	{
		ID:       "2",
		Prompt:   "How to optimize website content for AI search engines?",
		Category: "SEO",
		Selected: true,
		Queries: []string{
			"AI search engine optimization techniques",
			"content optimization for AI crawlers",
			"SEO strategies for AI-powered search",
		},
	},
	{
		ID:       "3",
		Prompt:   "What are the most effective AI-powered SEO tools?",
		Category: "Tools",
		Selected: true,
		Queries: []string{
			"best AI SEO tools 2024",
			"AI-powered SEO software comparison",
			"top AI SEO platforms for businesses",
		},
	},
	{
		ID:       "4",
		Prompt:   "How to implement semantic search on my website?",
		Category: "Implementation",
		Selected: true,
		Queries: []string{
			"semantic search implementation guide",
			"AI semantic search for websites",
			"how to add semantic search functionality",
		},
	},
	{
		ID:       "5",
		Prompt:   "Best practices for AI search analytics and monitoring?",
		Category: "Analytics",
		Selected: true,
		Queries: []string{
			"AI search analytics best practices",
			"monitoring AI search performance",
			"AI search tracking tools",
		},
	},
}

// returns the same fixed prompt set for every site
type CannedGenerator struct{}

func (CannedGenerator) Generate(_ context.Context, _ Site) ([]Prompt, error) {
	return Canned(), nil
}

// returns a copy of the fixed prompt set
func Canned() []Prompt {
	out := make([]Prompt, len(cannedPrompts))
	for i, p := range cannedPrompts {
		p.Queries = slices.Clone(p.Queries)
		out[i] = p
	}

	return out
}

package prompts

import "codeberg.org/citelens/server/internal/visibility"

// returns the selected prompts in order, as the aggregation joins them
func Selected(prompts []Prompt) []visibility.Prompt {
	out := make([]visibility.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if p.Selected && p.Prompt != "" {
			out = append(out, visibility.Prompt{Text: p.Prompt, Category: p.Category})
		}
	}

	return out
}

package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/citelens/server/internal/llm"
	"codeberg.org/citelens/server/internal/logger"
)

const (
	defaultPromptCount  = 5
	maxQueriesPerPrompt = 5
)

const systemPrompt = `You write the questions real people type into AI assistants such as ChatGPT, Gemini or Perplexity.

Given a website, return a JSON array of objects with this structure:
[
  {"prompt": "a natural question a potential customer would ask", "category": "one short topic label", "queries": ["2-3 web search queries an assistant would run to answer it"]}
]

Questions must be about the site's market, not about the site by name.
Return ONLY valid JSON, no markdown or explanations.`

// asks a language model for prompts tailored to the site
type LLMGenerator struct {
	llm      llm.TextGenerator
	fallback Generator
	count    int
}

// creates a generator; when the model fails the fallback answers instead
func NewLLMGenerator(textGenerator llm.TextGenerator, fallback Generator, count int) *LLMGenerator {
	if count <= 0 {
		count = defaultPromptCount
	}

	if fallback == nil {
		fallback = CannedGenerator{}
	}

	return &LLMGenerator{llm: textGenerator, fallback: fallback, count: count}
}

func (g *LLMGenerator) Generate(ctx context.Context, site Site) ([]Prompt, error) {
	resp, err := g.llm.GenerateText(ctx, llm.TextGenerationRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: describeSite(site, g.count)}},
	})
	if err != nil {
		logger.ErrorErr(err, "prompt generation failed, using fallback", "domain", site.Domain)
		return g.fallback.Generate(ctx, site)
	}

	prompts, err := parseGenerated(resp.Text, g.count)
	if err != nil {
		logger.ErrorErr(err, "unusable prompt generation output, using fallback", "domain", site.Domain)
		return g.fallback.Generate(ctx, site)
	}

	return prompts, nil
}

func describeSite(site Site, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Website: %s\n", site.URL)

	if site.Page != nil {
		if site.Page.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", site.Page.Title)
		}

		if site.Page.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", site.Page.Description)
		}

		if len(site.Page.Headings) > 0 {
			fmt.Fprintf(&b, "Headings: %s\n", strings.Join(site.Page.Headings, "; "))
		}
	}

	fmt.Fprintf(&b, "\nWrite %d prompts.", count)

	return b.String()
}

// decodes model output, tolerating markdown fences around the JSON
func parseGenerated(text string, limit int) ([]Prompt, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw []struct {
		Prompt   string   `json:"prompt"`
		Category string   `json:"category"`
		Queries  []string `json:"queries"`
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse generated prompts: %w", err)
	}

	out := make([]Prompt, 0, len(raw))
	for _, r := range raw {
		prompt := strings.TrimSpace(r.Prompt)
		if prompt == "" {
			continue
		}

		queries := make([]string, 0, len(r.Queries))
		for _, q := range r.Queries {
			if q = strings.TrimSpace(q); q != "" && len(queries) < maxQueriesPerPrompt {
				queries = append(queries, q)
			}
		}

		out = append(out, Prompt{
			ID:       strconv.Itoa(len(out) + 1),
			Prompt:   prompt,
			Category: strings.TrimSpace(r.Category),
			Selected: true,
			Queries:  queries,
		})

		if len(out) == limit {
			break
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no prompts in generated output")
	}

	return out, nil
}

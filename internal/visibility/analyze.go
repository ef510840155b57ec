package visibility

import (
	"fmt"

	"codeberg.org/citelens/server/internal/domains"
	"codeberg.org/citelens/server/internal/payload"
)

// Analyze runs the whole aggregation over p for the site at url. The target
// domain comes from the payload, or from url when the payload names none.
// Results are deterministic for a given input.
func Analyze(p *payload.Payload, url string, prompts []Prompt) (SiteAnalysis, error) {
	if p == nil || p.Queries == nil {
		return SiteAnalysis{}, fmt.Errorf("%w: payload has no query collection", payload.ErrInvalidInput)
	}

	targetSource := p.TargetDomain
	if targetSource == "" {
		targetSource = url
	}

	target := domains.Normalize(targetSource)
	if target == "" {
		return SiteAnalysis{}, fmt.Errorf("%w: target domain is required", payload.ErrInvalidInput)
	}

	if url == "" {
		url = targetSource
	}

	records := BuildRecords(p.Queries, prompts, target)
	summary := Summarize(records)

	return SiteAnalysis{
		URL:                   url,
		TargetDomain:          target,
		TotalQueries:          len(records),
		OverallAverageRanking: summary.OverallAverageRanking,
		OverallVisibility:     summary.OverallVisibility,
		TopCategory:           summary.TopCategory,
		Results:               records,
	}, nil
}

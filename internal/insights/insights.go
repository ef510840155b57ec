// Package insights turns a site analysis into competitive positioning and
// recommendations.
package insights

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"codeberg.org/citelens/server/internal/domains"
	"codeberg.org/citelens/server/internal/payload"
	"codeberg.org/citelens/server/internal/visibility"
)

// ranks past this position count as poorly ranked
const poorRankThreshold = 5

// Compute derives insights from an analysis and the payload it was built
// from. p may be nil, in which case no competitors are reported.
func Compute(p *payload.Payload, analysis visibility.SiteAnalysis) Insights {
	retrievalRate, citationRate := Rates(analysis.Results)

	// an average rank of 0 means no ranking data at all
	rank := analysis.OverallAverageRanking
	if rank <= 0 {
		rank = math.Inf(1)
	}

	in := Insights{
		RetrievalRate:         retrievalRate,
		CitationRate:          citationRate,
		MarketPosition:        MarketPosition(retrievalRate, citationRate, rank),
		KeyCompetitors:        []Competitor{},
		CompetitiveAdvantages: []string{},
		ImprovementAreas:      []string{},
		Recommendations:       Recommend(analysis.Results),
	}

	if p != nil {
		in.KeyCompetitors = Competitors(p.Queries, analysis.TargetDomain)
	}

	if rank < 2.5 {
		in.CompetitiveAdvantages = append(in.CompetitiveAdvantages, "Strong citation positioning")
	}
	if citationRate > 0.7 {
		in.CompetitiveAdvantages = append(in.CompetitiveAdvantages, "High citation conversion rate")
	}
	if retrievalRate > 0.7 {
		in.CompetitiveAdvantages = append(in.CompetitiveAdvantages, "Broad search visibility")
	}

	if rank > 3 {
		in.ImprovementAreas = append(in.ImprovementAreas, "Citation ranking optimization needed")
	}
	if citationRate < 0.5 {
		in.ImprovementAreas = append(in.ImprovementAreas, "Content authority enhancement required")
	}
	if retrievalRate < 0.5 {
		in.ImprovementAreas = append(in.ImprovementAreas, "Search visibility expansion needed")
	}

	return in
}

// Rates returns the share of records that retrieved the target and the share
// of retrieved records that also cited it.
func Rates(records []visibility.QueryRecord) (retrieval, citation float64) {
	if len(records) == 0 {
		return 0, 0
	}

	retrieved, cited := 0, 0
	for _, r := range records {
		if r.TargetRetrieved {
			retrieved++
		}
		if r.TargetCited {
			cited++
		}
	}

	retrieval = float64(retrieved) / float64(len(records))
	if retrieved > 0 {
		citation = float64(cited) / float64(retrieved)
	}

	return retrieval, citation
}

// MarketPosition classifies a site by its rates and average rank.
func MarketPosition(retrievalRate, citationRate, averageRank float64) string {
	switch {
	case retrievalRate > 0.8 && citationRate > 0.8 && averageRank < 2:
		return PositionMarketLeader
	case retrievalRate > 0.6 && citationRate > 0.6 && averageRank < 3:
		return PositionStrongCompetitor
	case retrievalRate > 0.4 && citationRate > 0.4:
		return PositionModerate
	default:
		return PositionEmerging
	}
}

// Competitors counts, for every non-target domain, the queries that cited it
// and returns the most frequent ones. Ties keep first appearance.
func Competitors(entries []payload.QueryEntry, target string) []Competitor {
	counts := map[string]int{}
	order := []string{}

	for _, e := range entries {
		for _, d := range e.Citations.Domains() {
			if d == "" || domains.FuzzyEquals(d, target) {
				continue
			}

			if _, seen := counts[d]; !seen {
				order = append(order, d)
			}
			counts[d]++
		}
	}

	out := make([]Competitor, 0, len(order))
	for _, d := range order {
		out = append(out, Competitor{Domain: d, Frequency: counts[d]})
	}

	slices.SortStableFunc(out, func(a, b Competitor) int {
		return cmp.Compare(b.Frequency, a.Frequency)
	})

	if len(out) > maxCompetitors {
		out = out[:maxCompetitors]
	}

	return out
}

// Recommend builds per-query advice from the records of an analysis.
func Recommend(records []visibility.QueryRecord) []Advice {
	notRetrieved, notCited, poorlyRanked := 0, 0, 0

	for _, r := range records {
		switch {
		case !r.TargetRetrieved:
			notRetrieved++
		case !r.TargetCited:
			notCited++
		}

		if r.TargetRetrieved && r.AverageRank > poorRankThreshold {
			poorlyRanked++
		}
	}

	advice := []Advice{}

	if notRetrieved > 0 {
		advice = append(advice, Advice{
			Type:        TypeCritical,
			Title:       "Missing Domain Retrieval",
			Description: fmt.Sprintf("Your domain wasn't retrieved in %d out of %d AI search queries.", notRetrieved, len(records)),
			Actions: []string{
				"Create comprehensive content targeting these specific query topics",
				"Ensure your content directly answers the questions users are asking",
				"Optimize meta descriptions and titles for better AI search comprehension",
				"Improve SEO fundamentals to increase search visibility",
			},
			Priority: "High",
			Impact:   "High Visibility Increase",
		})
	}

	if notCited > 0 {
		advice = append(advice, Advice{
			Type:        TypeWarning,
			Title:       "Retrieved but Not Cited",
			Description: fmt.Sprintf("Your domain was retrieved but not cited in %d queries.", notCited),
			Actions: []string{
				"Improve content quality and depth for better authority signals",
				"Add more relevant internal and external links",
				"Update content with latest information and statistics",
				"Create more authoritative and comprehensive content",
			},
			Priority: "Medium",
			Impact:   "Better Citation Rate",
		})
	}

	if poorlyRanked > 0 {
		advice = append(advice, Advice{
			Type:        TypeWarning,
			Title:       "Poor Ranking Performance",
			Description: fmt.Sprintf("Your domain appears but ranks poorly (position 6+) in %d queries.", poorlyRanked),
			Actions: []string{
				"Improve content quality and depth for better authority signals",
				"Add more relevant internal and external links",
				"Update content with latest information and statistics",
				"Optimize content structure for better search engine understanding",
			},
			Priority: "Medium",
			Impact:   "Better Positioning",
		})
	}

	if len(advice) == 0 {
		advice = append(advice, Advice{
			Type:        TypeSuccess,
			Title:       "No Issues Found",
			Description: "Your domain was cited near the top of every analyzed query.",
			Actions:     []string{"Keep content fresh and monitor visibility over time"},
			Priority:    "Low",
			Impact:      "Maintain Visibility",
		})
	}

	return advice
}

package visibility

import (
	"slices"
	"strconv"

	"codeberg.org/citelens/server/internal/citations"
	"codeberg.org/citelens/server/internal/payload"
)

// BuildRecords turns each query entry into exactly one QueryRecord, in entry
// order. Entries are joined to prompts by exact text; when none of an
// entry's associated prompts was supplied, the first supplied prompt owns it.
func BuildRecords(entries []payload.QueryEntry, prompts []Prompt, target string) []QueryRecord {
	records := make([]QueryRecord, 0, len(entries))

	for i, e := range entries {
		records = append(records, buildRecord(strconv.Itoa(i), e, prompts, target))
	}

	return records
}

func buildRecord(id string, e payload.QueryEntry, prompts []Prompt, target string) QueryRecord {
	owner, found := owningPrompt(e.PromptsUsingQuery, prompts)

	source := UnknownPrompt
	category := DefaultCategory

	if found {
		source = owner.Text
		if owner.Category != "" {
			category = owner.Category
		}
	}

	using := slices.Clone(e.PromptsUsingQuery)
	if len(using) == 0 {
		using = []string{source}
	}

	agg := citations.Aggregate(e.Citations, target)

	retrieved := agg.Retrieved || (e.TargetRetrieved != nil && *e.TargetRetrieved)

	cited := retrieved
	if e.TargetCited != nil {
		cited = *e.TargetCited && retrieved
	}

	// upstream average stands in when no usable position was reported
	averageRank := agg.AverageRank
	if retrieved && averageRank == 0 && e.AvgCitationRank != nil && *e.AvgCitationRank > 0 {
		averageRank = *e.AvgCitationRank
	}

	totalSources := agg.TotalSources
	if e.TotalDomains != nil {
		totalSources = *e.TotalDomains
	}

	totalSearches, appears := searchCounts(e, target, retrieved)

	return QueryRecord{
		ID:                    id,
		Query:                 e.Query,
		SourcePrompt:          source,
		PromptsUsingQuery:     using,
		Category:              category,
		TargetRetrieved:       retrieved,
		TargetCited:           cited,
		CitationPositions:     agg.Positions,
		AverageRank:           averageRank,
		TotalSources:          totalSources,
		TotalSearchesForQuery: totalSearches,
		AppearsInSearches:     appears,
		VisibilityScore:       citations.Score(retrieved, averageRank),
		CitationDistribution:  agg.Distribution,
	}
}

// first supplied prompt (in supplied order) named by the entry, falling back
// to the first supplied prompt
func owningPrompt(associated []string, prompts []Prompt) (Prompt, bool) {
	if len(prompts) == 0 {
		return Prompt{}, false
	}

	for _, p := range prompts {
		if slices.Contains(associated, p.Text) {
			return p, true
		}
	}

	return prompts[0], true
}

// number of underlying web searches and how many of them cited the target;
// flat entries count as a single search
func searchCounts(e payload.QueryEntry, target string, retrieved bool) (int, int) {
	if len(e.SubSearches) == 0 {
		if retrieved {
			return 1, 1
		}
		return 1, 0
	}

	appears := 0
	for _, s := range e.SubSearches {
		if _, ok := s.Lookup(target); ok {
			appears++
		}
	}

	return len(e.SubSearches), appears
}

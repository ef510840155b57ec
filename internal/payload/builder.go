package payload

import (
	"slices"

	"codeberg.org/citelens/server/internal/citations"
)

// collects query entries in first-seen order, folding repeated query texts
// into sub-searches of one entry
type builder struct {
	index   map[string]int
	queries []QueryEntry
}

func newBuilder() *builder {
	return &builder{
		index:   map[string]int{},
		queries: []QueryEntry{},
	}
}

func (b *builder) add(query, prompt string, search citations.Map) {
	i, ok := b.index[query]
	if !ok {
		entry := QueryEntry{
			Query:       query,
			Citations:   search.Clone(),
			SubSearches: []citations.Map{search},
		}
		if prompt != "" {
			entry.PromptsUsingQuery = []string{prompt}
		}

		b.index[query] = len(b.queries)
		b.queries = append(b.queries, entry)
		return
	}

	entry := &b.queries[i]
	entry.Citations = entry.Citations.Merge(search)
	entry.SubSearches = append(entry.SubSearches, search)

	if prompt != "" && !slices.Contains(entry.PromptsUsingQuery, prompt) {
		entry.PromptsUsingQuery = append(entry.PromptsUsingQuery, prompt)
	}
}

func (b *builder) payload(target string) *Payload {
	return &Payload{TargetDomain: target, Queries: b.queries}
}

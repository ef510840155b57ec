package provider

import (
	"context"
	"hash/fnv"
	"strings"

	"codeberg.org/citelens/server/internal/citations"
	"codeberg.org/citelens/server/internal/payload"
)

var mockCompetitors = []string{
	"semrush.com",
	"ahrefs.com",
	"moz.com",
	"searchengineland.com",
	"hubspot.com",
	"backlinko.com",
}

// deterministic provider for development and tests: the same request always
// yields the same searches and citations
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Run(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queries := req.Queries
	if len(queries) == 0 {
		queries = []string{strings.TrimSuffix(strings.ToLower(strings.TrimSpace(req.Prompt)), "?")}
	}

	searches := make([]payload.Search, 0, len(queries))
	for _, q := range queries {
		searches = append(searches, payload.Search{Query: q, Sources: mockSources(q, req.TargetDomain)})
	}

	return &Result{
		Model:    "mock",
		Answer:   "mock answer for: " + req.Prompt,
		Searches: searches,
	}, nil
}

// picks four competitors and, for two out of three queries, the target
func mockSources(query, target string) citations.Map {
	h := fnv.New32a()
	h.Write([]byte(query)) //nolint:errcheck
	seed := h.Sum32()

	sources := citations.Map{}
	position := uint32(1)

	for i := range uint32(4) {
		domain := mockCompetitors[(seed+i)%uint32(len(mockCompetitors))]

		// every third source is retrieved but not cited
		if (seed+i)%3 == 0 {
			sources = sources.Add(domain)
			continue
		}

		sources = sources.Add(domain, int(position))
		position++
	}

	if target != "" && seed%3 != 0 {
		// cited somewhere between first and last
		sources = sources.Add(target, int(1+seed%position))
	}

	return sources
}

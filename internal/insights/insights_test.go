package insights

import (
	"math"
	"testing"

	"codeberg.org/citelens/server/internal/citations"
	"codeberg.org/citelens/server/internal/payload"
	"codeberg.org/citelens/server/internal/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketPosition(t *testing.T) {
	inf := math.Inf(1)

	tests := []struct {
		name      string
		retrieval float64
		citation  float64
		rank      float64
		want      string
	}{
		{"leader", 0.9, 0.9, 1.5, PositionMarketLeader},
		{"leader needs top rank", 0.9, 0.9, 2, PositionStrongCompetitor},
		{"strong", 0.7, 0.7, 2.5, PositionStrongCompetitor},
		{"moderate ignores rank", 0.5, 0.5, inf, PositionModerate},
		{"boundary is exclusive", 0.4, 0.9, 1, PositionEmerging},
		{"no data", 0, 0, inf, PositionEmerging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MarketPosition(tt.retrieval, tt.citation, tt.rank))
		})
	}
}

func TestRates(t *testing.T) {
	retrieval, citation := Rates(nil)
	assert.Zero(t, retrieval)
	assert.Zero(t, citation)

	records := []visibility.QueryRecord{
		{TargetRetrieved: true, TargetCited: true},
		{TargetRetrieved: true, TargetCited: false},
		{},
		{},
	}

	retrieval, citation = Rates(records)
	assert.Equal(t, 0.5, retrieval)
	assert.Equal(t, 0.5, citation)

	// no retrieval means no citation rate either
	retrieval, citation = Rates([]visibility.QueryRecord{{}, {}})
	assert.Zero(t, retrieval)
	assert.Zero(t, citation)
}

func TestCompetitors(t *testing.T) {
	entries := []payload.QueryEntry{
		{Citations: citations.Map{
			{Domain: "https://www.example.com", Positions: []int{1}},
			{Domain: "a.com", Positions: []int{2}},
			{Domain: "b.com", Positions: []int{3}},
		}},
		{Citations: citations.Map{
			{Domain: "b.com", Positions: []int{1}},
			{Domain: "www.b.com", Positions: []int{2}},
			{Domain: "c.com", Positions: []int{}},
		}},
		{Citations: citations.Map{
			{Domain: "d.com", Positions: []int{1}},
			{Domain: "e.com", Positions: []int{1}},
			{Domain: "f.com", Positions: []int{1}},
			{Domain: "blog.example.com", Positions: []int{1}},
		}},
	}

	got := Competitors(entries, "example.com")

	assert.Equal(t, []Competitor{
		{Domain: "b.com", Frequency: 2},
		{Domain: "a.com", Frequency: 1},
		{Domain: "c.com", Frequency: 1},
		{Domain: "d.com", Frequency: 1},
		{Domain: "e.com", Frequency: 1},
	}, got)
}

func TestRecommend(t *testing.T) {
	records := []visibility.QueryRecord{
		{},
		{TargetRetrieved: true, TargetCited: false, AverageRank: 7},
		{TargetRetrieved: true, TargetCited: true, AverageRank: 1},
	}

	advice := Recommend(records)
	require.Len(t, advice, 3)

	assert.Equal(t, "Missing Domain Retrieval", advice[0].Title)
	assert.Equal(t, TypeCritical, advice[0].Type)
	assert.Equal(t, "Your domain wasn't retrieved in 1 out of 3 AI search queries.", advice[0].Description)
	assert.Equal(t, "High", advice[0].Priority)

	assert.Equal(t, "Retrieved but Not Cited", advice[1].Title)
	assert.Equal(t, "Poor Ranking Performance", advice[2].Title)
	assert.Contains(t, advice[2].Description, "in 1 queries")
}

func TestRecommend_NoIssues(t *testing.T) {
	advice := Recommend([]visibility.QueryRecord{{TargetRetrieved: true, TargetCited: true, AverageRank: 2}})

	require.Len(t, advice, 1)
	assert.Equal(t, TypeSuccess, advice[0].Type)
}

func TestCompute(t *testing.T) {
	p := &payload.Payload{
		TargetDomain: "example.com",
		Queries: []payload.QueryEntry{
			{Query: "q1", Citations: citations.Map{{Domain: "example.com", Positions: []int{1}}, {Domain: "rival.com", Positions: []int{2}}}},
			{Query: "q2", Citations: citations.Map{{Domain: "example.com", Positions: []int{1}}}},
		},
	}

	analysis, err := visibility.Analyze(p, "https://example.com", nil)
	require.NoError(t, err)

	in := Compute(p, analysis)

	assert.Equal(t, 1.0, in.RetrievalRate)
	assert.Equal(t, 1.0, in.CitationRate)
	assert.Equal(t, PositionMarketLeader, in.MarketPosition)
	assert.Equal(t, []Competitor{{Domain: "rival.com", Frequency: 1}}, in.KeyCompetitors)
	assert.Equal(t, []string{"Strong citation positioning", "High citation conversion rate", "Broad search visibility"}, in.CompetitiveAdvantages)
	assert.Empty(t, in.ImprovementAreas)
}

func TestCompute_NoRankingData(t *testing.T) {
	analysis := visibility.SiteAnalysis{
		TargetDomain: "example.com",
		Results:      []visibility.QueryRecord{{}, {}},
	}

	in := Compute(nil, analysis)

	assert.Equal(t, PositionEmerging, in.MarketPosition)
	assert.NotNil(t, in.KeyCompetitors)
	assert.Empty(t, in.KeyCompetitors)
	assert.Empty(t, in.CompetitiveAdvantages)
	assert.Equal(t, []string{
		"Citation ranking optimization needed",
		"Content authority enhancement required",
		"Search visibility expansion needed",
	}, in.ImprovementAreas)
}

package citations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_TargetCited(t *testing.T) {
	m := Map{
		{Domain: "example.com", Positions: []int{2}},
		{Domain: "competitor.com", Positions: []int{1}},
	}

	res := Aggregate(m, "example.com")

	assert.True(t, res.Retrieved)
	assert.Equal(t, "example.com", res.MatchedDomain)
	assert.Equal(t, []int{2}, res.Positions)
	assert.Equal(t, 2.0, res.AverageRank)
	assert.Equal(t, 80, res.VisibilityScore)
	assert.Equal(t, 2, res.TotalSources)
	assert.Equal(t, []PositionCount{{Position: 1, Count: 1}, {Position: 2, Count: 1}}, res.Distribution)
}

func TestAggregate_EmptyMap(t *testing.T) {
	res := Aggregate(Map{}, "example.com")

	assert.False(t, res.Retrieved)
	assert.Empty(t, res.Positions)
	assert.NotNil(t, res.Positions)
	assert.Equal(t, 0.0, res.AverageRank)
	assert.Equal(t, 0, res.VisibilityScore)
	assert.Equal(t, 0, res.TotalSources)
	assert.Empty(t, res.Distribution)
	assert.NotNil(t, res.Distribution)
}

func TestAggregate_NotRetrieved(t *testing.T) {
	m := Map{
		{Domain: "https://ahrefs.com", Positions: []int{1, 3}},
		{Domain: "https://moz.com", Positions: []int{2}},
	}

	res := Aggregate(m, "example.com")

	assert.False(t, res.Retrieved)
	assert.Equal(t, 0, res.VisibilityScore)
	assert.Equal(t, 2, res.TotalSources)
	assert.Len(t, res.Distribution, 3)
}

func TestAggregate_FirstMatchWins(t *testing.T) {
	m := Map{
		{Domain: "https://www.example.com", Positions: []int{4}},
		{Domain: "https://example.com/blog", Positions: []int{1}},
	}

	res := Aggregate(m, "example.com")

	require.True(t, res.Retrieved)
	assert.Equal(t, "https://www.example.com", res.MatchedDomain)
	assert.Equal(t, []int{4}, res.Positions)
	assert.Equal(t, 4.0, res.AverageRank)
	// both keys normalize to the same host
	assert.Equal(t, 1, res.TotalSources)
}

func TestAggregate_MultiplePositions(t *testing.T) {
	m := Map{
		{Domain: "ai-bees.io", Positions: []int{1, 3}},
		{Domain: "blog.example.com", Positions: []int{2, 5}},
	}

	res := Aggregate(m, "example.com")

	assert.Equal(t, []int{2, 5}, res.Positions)
	assert.Equal(t, 3.5, res.AverageRank)
	assert.Equal(t, 65, res.VisibilityScore)
	assert.Equal(t, []PositionCount{
		{Position: 1, Count: 1},
		{Position: 2, Count: 1},
		{Position: 3, Count: 1},
		{Position: 4, Count: 0},
		{Position: 5, Count: 1},
	}, res.Distribution)
}

func TestAggregate_RetrievedWithoutPositions(t *testing.T) {
	m := Map{
		{Domain: "example.com", Positions: []int{}},
		{Domain: "other.com", Positions: []int{1}},
	}

	res := Aggregate(m, "example.com")

	assert.True(t, res.Retrieved)
	assert.Empty(t, res.Positions)
	assert.Equal(t, 0.0, res.AverageRank)
	assert.Equal(t, MinRetrievedScore, res.VisibilityScore)
}

func TestAggregate_InvalidPositionsExcluded(t *testing.T) {
	m := Map{
		{Domain: "example.com", Positions: []int{0, -2, 3}},
		{Domain: "other.com", Positions: []int{-1, 1}},
	}

	res := Aggregate(m, "example.com")

	assert.Equal(t, []int{3}, res.Positions)
	assert.Equal(t, 3.0, res.AverageRank)
	assert.Equal(t, []PositionCount{
		{Position: 1, Count: 1},
		{Position: 2, Count: 0},
		{Position: 3, Count: 1},
	}, res.Distribution)
}

func TestAggregate_PositionsCoveredByDistribution(t *testing.T) {
	m := Map{
		{Domain: "a.com", Positions: []int{7}},
		{Domain: "example.com", Positions: []int{2, 2, 9}},
		{Domain: "b.com", Positions: []int{1, 4}},
	}

	res := Aggregate(m, "example.com")

	for _, p := range res.Positions {
		require.GreaterOrEqual(t, p, 1)
		require.LessOrEqual(t, p, len(res.Distribution))
		assert.Positive(t, res.Distribution[p-1].Count, "position %d must be counted", p)
	}
}

func TestDistribution_ConservesCitationPairs(t *testing.T) {
	maps := []Map{
		{},
		{{Domain: "a.com", Positions: []int{1}}},
		{{Domain: "a.com", Positions: []int{1, 1, 3}}, {Domain: "b.com", Positions: []int{2, 8}}},
		{{Domain: "a.com", Positions: []int{}}, {Domain: "b.com", Positions: []int{0, 5}}},
	}

	for _, m := range maps {
		total := 0
		for _, pc := range Distribution(m) {
			total += pc.Count
		}

		assert.Equal(t, m.Pairs(), total)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		retrieved bool
		rank      float64
		want      int
	}{
		{name: "absent", retrieved: false, rank: 1, want: 0},
		{name: "rank one", retrieved: true, rank: 1, want: 90},
		{name: "rank two", retrieved: true, rank: 2, want: 80},
		{name: "fractional rank rounds", retrieved: true, rank: 1.25, want: 88},
		{name: "rank nine hits floor", retrieved: true, rank: 9, want: 10},
		{name: "deep rank stays at floor", retrieved: true, rank: 25, want: 10},
		{name: "no usable rank", retrieved: true, rank: 0, want: 10},
		{name: "sub-one rank capped", retrieved: true, rank: 0.2, want: 98},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.retrieved, tt.rank))
		})
	}
}

func TestScore_MonotonicInRank(t *testing.T) {
	assert.GreaterOrEqual(t, Score(true, 1), Score(true, 9))

	prev := Score(true, 1)
	for rank := 1.0; rank <= 15; rank += 0.5 {
		s := Score(true, rank)
		assert.LessOrEqual(t, s, prev)
		prev = s
	}
}

func TestMap_AddAndMerge(t *testing.T) {
	var m Map
	m = m.Add("b.com", 2)
	m = m.Add("a.com", 1)
	m = m.Add("b.com", 5)

	require.Len(t, m, 2)
	assert.Equal(t, "b.com", m[0].Domain)
	assert.Equal(t, []int{2, 5}, m[0].Positions)

	merged := m.Clone().Merge(Map{{Domain: "c.com", Positions: []int{3}}, {Domain: "a.com", Positions: []int{4}}})

	assert.Equal(t, []string{"b.com", "a.com", "c.com"}, merged.Domains())
	assert.Equal(t, []int{1, 4}, merged[1].Positions)
	// clone is independent of the original
	assert.Equal(t, []int{1}, m[1].Positions)
}

package citations

import "math"

// Aggregate computes retrieval, rank, score and distribution of target within
// one query's citation map. The first fuzzily matching entry is the target
// entry; later matches are ignored.
func Aggregate(m Map, target string) Result {
	res := Result{
		Positions:    []int{},
		TotalSources: len(m.Domains()),
		Distribution: Distribution(m),
	}

	entry, ok := m.Lookup(target)
	if !ok {
		return res
	}

	res.Retrieved = true
	res.MatchedDomain = entry.Domain
	res.Positions = validPositions(entry.Positions)
	res.AverageRank = Mean(res.Positions)
	res.VisibilityScore = Score(true, res.AverageRank)

	return res
}

// Score maps retrieval and average rank to 0..100. Absent domains score 0;
// retrieved ones lose ten points per rank and never drop below 10.
//
// An average rank of 0 means no usable position. It scores the floor, not the
// 100 that 100 - 0*10 would give, so a domain retrieved without any citation
// never outscores one cited first.
func Score(retrieved bool, averageRank float64) int {
	if !retrieved {
		return 0
	}

	if averageRank <= 0 {
		return MinRetrievedScore
	}

	score := int(math.Round(MaxScore - averageRank*pointsPerRank))

	return min(MaxScore, max(MinRetrievedScore, score))
}

// Distribution builds a dense histogram over positions 1..max across every
// domain of the query. Non-positive positions are skipped.
func Distribution(m Map) []PositionCount {
	counts := map[int]int{}
	maxPos := 0

	for _, e := range m {
		for _, p := range validPositions(e.Positions) {
			counts[p]++
			maxPos = max(maxPos, p)
		}
	}

	out := make([]PositionCount, 0, maxPos)
	for p := 1; p <= maxPos; p++ {
		out = append(out, PositionCount{Position: p, Count: counts[p]})
	}

	return out
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0
	for _, v := range values {
		sum += v
	}

	return float64(sum) / float64(len(values))
}

// keeps positive positions in their original order
func validPositions(positions []int) []int {
	out := make([]int, 0, len(positions))
	for _, p := range positions {
		if p > 0 {
			out = append(out, p)
		}
	}

	return out
}

package visibility

import "math"

// Summarize reduces records to site-level metrics. Records with an average
// rank of 0 do not count towards the overall ranking.
func Summarize(records []QueryRecord) Summary {
	if len(records) == 0 {
		return Summary{TopCategory: NoCategory}
	}

	rankSum, ranked, scoreSum := 0.0, 0, 0
	counts := map[string]int{}
	order := []string{}

	for _, r := range records {
		if r.AverageRank > 0 {
			rankSum += r.AverageRank
			ranked++
		}

		scoreSum += r.VisibilityScore

		if _, seen := counts[r.Category]; !seen {
			order = append(order, r.Category)
		}
		counts[r.Category]++
	}

	s := Summary{
		OverallVisibility: int(math.Round(float64(scoreSum) / float64(len(records)))),
		TopCategory:       order[0],
	}

	if ranked > 0 {
		s.OverallAverageRanking = roundTo(rankSum/float64(ranked), 1)
	}

	// strict comparison keeps the first-encountered category on ties
	for _, c := range order[1:] {
		if counts[c] > counts[s.TopCategory] {
			s.TopCategory = c
		}
	}

	return s
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

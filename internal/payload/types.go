package payload

import (
	"errors"

	"codeberg.org/citelens/server/internal/citations"
)

// returned when a payload lacks the top-level query collection or is not JSON
var ErrInvalidInput = errors.New("invalid input")

// upstream payload shapes understood by Parse
type Shape string

const (
	ShapePerQuery   Shape = "per_query"
	ShapeModelRuns  Shape = "model_runs"
	ShapeSearchData Shape = "search_data"
)

// canonical raw input of the aggregation core
type Payload struct {
	TargetDomain string

	// nil means the upstream document had no query collection
	Queries []QueryEntry
}

// one logical search query as reported upstream; optional upstream fields
// are pointers so "absent" stays distinguishable from zero
type QueryEntry struct {
	Query             string
	PromptsUsingQuery []string
	Citations         citations.Map

	// one map per underlying web search when the upstream ran several;
	// empty for flat shapes
	SubSearches []citations.Map

	TotalDomains    *int
	TargetRetrieved *bool
	TargetCited     *bool
	AvgCitationRank *float64
}

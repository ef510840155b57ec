package visibility

import "codeberg.org/citelens/server/internal/citations"

const (
	// category assigned when the owning prompt has none
	DefaultCategory = "General"

	// source prompt used when no prompt was supplied at all
	UnknownPrompt = "unknown"

	// top category of an empty analysis
	NoCategory = "N/A"
)

// prompt as selected by the caller; Text is the join key for query entries
type Prompt struct {
	Text     string `json:"prompt"`
	Category string `json:"category"`
}

// per-query visibility record
type QueryRecord struct {
	ID                    string                    `json:"id"`
	Query                 string                    `json:"query"`
	SourcePrompt          string                    `json:"sourcePrompt"`
	PromptsUsingQuery     []string                  `json:"promptsUsingQuery"`
	Category              string                    `json:"category"`
	TargetRetrieved       bool                      `json:"targetRetrieved"`
	TargetCited           bool                      `json:"targetCited"`
	CitationPositions     []int                     `json:"citationPositions"`
	AverageRank           float64                   `json:"averageRank"` // 0 when not applicable
	TotalSources          int                       `json:"totalSources"`
	TotalSearchesForQuery int                       `json:"totalSearchesForQuery"`
	AppearsInSearches     int                       `json:"appearsInSearches"`
	VisibilityScore       int                       `json:"visibilityScore"`
	CitationDistribution  []citations.PositionCount `json:"citationDistribution"`
}

// whole-site rollup of one analysis run
type SiteAnalysis struct {
	URL                   string        `json:"url"`
	TargetDomain          string        `json:"targetDomain"`
	TotalQueries          int           `json:"totalQueries"`
	OverallAverageRanking float64       `json:"overallAverageRanking"`
	OverallVisibility     int           `json:"overallVisibility"`
	TopCategory           string        `json:"topCategory"`
	Results               []QueryRecord `json:"results"`
}

// site-level metrics computed from a record set
type Summary struct {
	OverallAverageRanking float64
	OverallVisibility     int
	TopCategory           string
}

package citations

// citation positions reported for one source domain
type Entry struct {
	Domain    string `json:"domain"`
	Positions []int  `json:"positions"`
}

// ordered domain -> positions mapping; order is the upstream document order
// and decides which entry wins when several match the target
type Map []Entry

// one bar of a dense position histogram
type PositionCount struct {
	Position int `json:"position"`
	Count    int `json:"count"`
}

// aggregated citation facts for one query and one target domain
type Result struct {
	Retrieved       bool
	MatchedDomain   string
	Positions       []int
	AverageRank     float64
	VisibilityScore int
	TotalSources    int
	Distribution    []PositionCount
}

const (
	// lowest score a retrieved domain can get
	MinRetrievedScore = 10

	// highest possible score
	MaxScore = 100

	// score lost per rank position
	pointsPerRank = 10
)

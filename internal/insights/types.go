package insights

// market positions, strongest first
const (
	PositionMarketLeader     = "market_leader"
	PositionStrongCompetitor = "strong_competitor"
	PositionModerate         = "moderate_presence"
	PositionEmerging         = "emerging_player"
)

// advice severities
const (
	TypeCritical = "critical"
	TypeWarning  = "warning"
	TypeSuccess  = "success"
)

const maxCompetitors = 5

// competitive summary derived from one analysis
type Insights struct {
	RetrievalRate         float64      `json:"retrievalRate"`
	CitationRate          float64      `json:"citationRate"`
	MarketPosition        string       `json:"marketPosition"`
	KeyCompetitors        []Competitor `json:"keyCompetitors"`
	CompetitiveAdvantages []string     `json:"competitiveAdvantages"`
	ImprovementAreas      []string     `json:"improvementAreas"`
	Recommendations       []Advice     `json:"recommendations"`
}

// domain other than the target and the number of queries that cited it
type Competitor struct {
	Domain    string `json:"domain"`
	Frequency int    `json:"frequency"`
}

// actionable recommendation shown next to a report
type Advice struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
	Priority    string   `json:"priority"`
	Impact      string   `json:"impact"`
}

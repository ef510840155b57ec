package aggregate

import (
	"encoding/json"

	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/visibility"
)

type Request struct {
	TargetDomain string           `json:"targetDomain" binding:"max=255"`
	URL          string           `json:"url" binding:"max=2048"`
	Prompts      []prompts.Prompt `json:"prompts" binding:"max=50"`

	// forces an adapter instead of detecting the shape
	Shape string `json:"shape" binding:"omitempty,oneof=per_query model_runs search_data"`

	Payload json.RawMessage `json:"payload" binding:"required"`
}

type Response struct {
	Shape    string                  `json:"shape"`
	Analysis visibility.SiteAnalysis `json:"analysis"`
	Insights insights.Insights       `json:"insights"`
}

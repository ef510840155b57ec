package prompts

import "codeberg.org/citelens/server/internal/prompts"

type GenerateRequest struct {
	URL string `json:"url" binding:"required,max=2048"`

	// drops cached prompts for the domain before generating
	Refresh bool `json:"refresh"`
}

type GenerateResponse struct {
	URL     string           `json:"url"`
	Domain  string           `json:"domain"`
	Title   string           `json:"title,omitempty"`
	Prompts []prompts.Prompt `json:"prompts"`
}

package prompts

import (
	"context"

	"codeberg.org/citelens/server/internal/crawler"
)

// candidate question a user might ask an AI assistant about the site
type Prompt struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Category string   `json:"category"`
	Selected bool     `json:"selected"`
	Queries  []string `json:"queries"`
}

// what generators know about the analyzed site
type Site struct {
	URL    string
	Domain string
	Page   *crawler.Page // nil when the page could not be fetched
}

// produces candidate prompts for a site
type Generator interface {
	Generate(ctx context.Context, site Site) ([]Prompt, error)
}

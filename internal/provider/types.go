package provider

import (
	"context"

	"codeberg.org/citelens/server/internal/payload"
)

// what the answer engine is asked
type Request struct {
	Prompt string

	// search queries suggested for the prompt; engines may ignore them
	Queries []string

	// domain under analysis; only the mock provider looks at it
	TargetDomain string
}

// answer engine output reduced to the searches it ran and the sources it cited
type Result struct {
	Model    string
	Answer   string
	Searches []payload.Search
}

// runs prompts against an AI answer engine
type Provider interface {
	Name() string
	Run(ctx context.Context, req Request) (*Result, error)
}

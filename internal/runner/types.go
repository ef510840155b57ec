package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/progress"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/provider"
)

const (
	DefaultBackoff = 500 * time.Millisecond

	defaultAttempts = 3
	runTimeout      = 10 * time.Minute
)

var (
	ErrNoPrompts        = errors.New("no prompts selected")
	ErrAllPromptsFailed = errors.New("all prompts failed")
)

// one analysis to run
type Job struct {
	ReportID     string
	URL          string
	TargetDomain string
	Prompts      []prompts.Prompt
}

type Options struct {
	Concurrency int
	Attempts    int
	Backoff     time.Duration // base delay between attempts, jittered; 0 retries at once
}

// runs analysis jobs against a provider and stores the reports
type Runner struct {
	provider  provider.Provider
	store     reports.Store
	publisher progress.Publisher
	opts      Options

	// background jobs started with Start
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

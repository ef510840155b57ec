// Package runner executes analysis jobs: it fans prompts out to an answer
// provider, aggregates the collected citations and stores the report.
package runner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/metrics"
	"codeberg.org/citelens/server/internal/payload"
	"codeberg.org/citelens/server/internal/progress"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/provider"
	"codeberg.org/citelens/server/internal/visibility"
	"golang.org/x/sync/errgroup"
)

func New(p provider.Provider, store reports.Store, publisher progress.Publisher, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	if opts.Attempts < 1 {
		opts.Attempts = defaultAttempts
	}

	if opts.Backoff < 0 {
		opts.Backoff = 0
	}

	if publisher == nil {
		publisher = progress.Discard{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		provider:  p,
		store:     store,
		publisher: publisher,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// runs job in the background; the result lands in the store
func (r *Runner) Start(job Job) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(r.ctx, runTimeout)
		defer cancel()

		if _, err := r.Run(ctx, job); err != nil {
			logger.Warn("analysis run failed",
				"report_id", job.ReportID,
				"error", err,
			)
		}
	}()
}

// cancels background jobs and waits for them to record their outcome
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes job synchronously and returns the stored report.
func (r *Runner) Run(ctx context.Context, job Job) (*reports.Report, error) {
	start := time.Now()
	selected := prompts.Selected(job.Prompts)
	ctx = logger.WithContext(ctx, logger.With("report_id", job.ReportID))

	if len(selected) == 0 {
		return nil, r.fail(ctx, job, 0, ErrNoPrompts, start)
	}

	if err := r.store.MarkRunning(ctx, job.ReportID); err != nil {
		return nil, fmt.Errorf("failed to mark report running: %w", err)
	}

	total := len(selected)
	r.publish(progress.Event{Type: progress.TypeStarted, ReportID: job.ReportID, Total: total})

	runs := r.runPrompts(ctx, job, total)

	if err := ctx.Err(); err != nil {
		return nil, r.fail(ctx, job, total, err, start)
	}

	succeeded := 0
	for _, run := range runs {
		if run.Success {
			succeeded++
		}
	}

	if succeeded == 0 {
		return nil, r.fail(ctx, job, total, ErrAllPromptsFailed, start)
	}

	p := payload.FromRuns(runs, job.TargetDomain)

	analysis, err := visibility.Analyze(p, job.URL, selected)
	metrics.RecordAggregation(string(payload.ShapeModelRuns), len(p.Queries), err)
	if err != nil {
		return nil, r.fail(ctx, job, total, err, start)
	}

	ins := insights.Compute(p, analysis)

	if err := r.store.Complete(ctx, job.ReportID, analysis, ins); err != nil {
		return nil, r.fail(ctx, job, total, fmt.Errorf("failed to store report: %w", err), start)
	}

	metrics.RecordRun(reports.StatusCompleted, time.Since(start))
	r.publish(progress.Event{Type: progress.TypeCompleted, ReportID: job.ReportID, Completed: total, Total: total})

	logger.FromContext(ctx).Info("analysis completed",
		"target", analysis.TargetDomain,
		"queries", analysis.TotalQueries,
		"visibility", analysis.OverallVisibility,
		"failed_prompts", total-succeeded,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return r.store.Get(ctx, job.ReportID)
}

// runs every selected prompt with bounded concurrency; results keep prompt order
func (r *Runner) runPrompts(ctx context.Context, job Job, total int) []payload.PromptRun {
	runs := make([]payload.PromptRun, 0, total)
	for _, p := range job.Prompts {
		if p.Selected && p.Prompt != "" {
			runs = append(runs, payload.PromptRun{Prompt: p.Prompt})
		}
	}

	queries := make(map[string][]string, total)
	for _, p := range job.Prompts {
		if _, ok := queries[p.Prompt]; !ok {
			queries[p.Prompt] = p.Queries
		}
	}

	var completed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i := range runs {
		g.Go(func() error {
			req := provider.Request{
				Prompt:       runs[i].Prompt,
				Queries:      queries[runs[i].Prompt],
				TargetDomain: job.TargetDomain,
			}

			result, err := r.runWithRetry(gctx, req)
			done := int(completed.Add(1))

			if err != nil {
				r.publish(progress.Event{
					Type:      progress.TypePromptFailed,
					ReportID:  job.ReportID,
					Prompt:    req.Prompt,
					Completed: done,
					Total:     total,
					Error:     err.Error(),
				})
				return nil
			}

			runs[i].Success = true
			runs[i].Searches = result.Searches

			r.publish(progress.Event{
				Type:      progress.TypePromptCompleted,
				ReportID:  job.ReportID,
				Prompt:    req.Prompt,
				Completed: done,
				Total:     total,
			})

			return nil
		})
	}

	g.Wait() //nolint:errcheck // workers never return errors

	return runs
}

func (r *Runner) runWithRetry(ctx context.Context, req provider.Request) (*provider.Result, error) {
	var lastErr error

	for attempt := 1; attempt <= r.opts.Attempts; attempt++ {
		start := time.Now()
		result, err := r.provider.Run(ctx, req)
		metrics.RecordProviderCall(r.provider.Name(), err, time.Since(start))

		if err == nil {
			return result, nil
		}

		lastErr = err
		logger.FromContext(ctx).Debug("provider call failed",
			"provider", r.provider.Name(),
			"attempt", attempt,
			"error", err,
		)

		if attempt == r.opts.Attempts {
			break
		}

		if err := sleep(ctx, backoff(r.opts.Backoff, attempt)); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("prompt failed after %d attempts: %w", r.opts.Attempts, lastErr)
}

// marks the report failed and returns cause
func (r *Runner) fail(ctx context.Context, job Job, total int, cause error, start time.Time) error {
	// record the failure even when ctx is already cancelled
	storeCtx := context.WithoutCancel(ctx)

	if err := r.store.Fail(storeCtx, job.ReportID, cause.Error()); err != nil {
		logger.FromContext(ctx).Warn("failed to record report failure", "error", err)
	}

	metrics.RecordRun(reports.StatusFailed, time.Since(start))
	r.publish(progress.Event{
		Type:     progress.TypeFailed,
		ReportID: job.ReportID,
		Total:    total,
		Error:    cause.Error(),
	})

	return cause
}

func (r *Runner) publish(e progress.Event) {
	e.Timestamp = time.Now().UTC()
	r.publisher.Publish(e)
}

// base * attempt, plus up to half of that again
func backoff(base time.Duration, attempt int) time.Duration {
	d := base * time.Duration(attempt)
	if d <= 0 {
		return 0
	}

	return d + rand.N(d/2+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/citations"
	"codeberg.org/citelens/server/internal/payload"
	"codeberg.org/citelens/server/internal/progress"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// provider scripted per prompt: a prompt listed in failures fails that many
// times before succeeding
type scriptedProvider struct {
	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newScriptedProvider(failures map[string]int) *scriptedProvider {
	return &scriptedProvider{failures: failures, calls: map[string]int{}}
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Run(ctx context.Context, req provider.Request) (*provider.Result, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	for {
		seen := p.maxSeen.Load()
		if n <= seen || p.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	p.calls[req.Prompt]++
	call := p.calls[req.Prompt]
	p.mu.Unlock()

	if call <= p.failures[req.Prompt] {
		return nil, errors.New("upstream unavailable")
	}

	searches := make([]payload.Search, 0, len(req.Queries))
	for _, q := range req.Queries {
		searches = append(searches, payload.Search{
			Query: q,
			Sources: citations.Map{
				{Domain: "https://competitor.com", Positions: []int{1}},
				{Domain: "https://" + req.TargetDomain, Positions: []int{2}},
			},
		})
	}

	return &provider.Result{Model: "scripted", Searches: searches}, nil
}

func (p *scriptedProvider) callCount(prompt string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[prompt]
}

func testPrompts() []prompts.Prompt {
	return []prompts.Prompt{
		{ID: "1", Prompt: "best widgets?", Category: "Tools", Selected: true, Queries: []string{"best widgets", "widget reviews"}},
		{ID: "2", Prompt: "how to fix widgets?", Category: "Implementation", Selected: true, Queries: []string{"widget repair"}},
		{ID: "3", Prompt: "unselected", Category: "SEO", Selected: false, Queries: []string{"never run"}},
	}
}

func newJob(t *testing.T, store reports.Store) Job {
	t.Helper()

	report, err := store.Create(context.Background(), nil, "https://example.com")
	require.NoError(t, err)

	return Job{
		ReportID:     report.ID,
		URL:          "https://example.com",
		TargetDomain: "example.com",
		Prompts:      testPrompts(),
	}
}

func TestRun_Completes(t *testing.T) {
	store := reports.NewMemoryStore()
	recorder := &progress.Recorder{}
	p := newScriptedProvider(nil)
	r := New(p, store, recorder, Options{Concurrency: 2})

	job := newJob(t, store)
	report, err := r.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, reports.StatusCompleted, report.Status)
	require.NotNil(t, report.Analysis)
	assert.Equal(t, "example.com", report.Analysis.TargetDomain)
	assert.Equal(t, 3, report.Analysis.TotalQueries)
	assert.Equal(t, 2.0, report.Analysis.OverallAverageRanking)
	assert.Equal(t, 80, report.Analysis.OverallVisibility)

	// records carry the category of the prompt that issued them
	assert.Equal(t, "Tools", report.Analysis.Results[0].Category)
	assert.Equal(t, "Implementation", report.Analysis.Results[2].Category)

	require.NotNil(t, report.Insights)
	assert.Equal(t, 1.0, report.Insights.RetrievalRate)

	assert.Equal(t, 0, p.callCount("unselected"))

	types := recorder.Types()
	assert.Equal(t, progress.TypeStarted, types[0])
	assert.Equal(t, progress.TypeCompleted, types[len(types)-1])
	assert.Len(t, types, 4)

	last := recorder.Events()[len(types)-1]
	assert.Equal(t, 2, last.Completed)
	assert.Equal(t, 2, last.Total)
}

func TestRun_RetriesFailedPrompts(t *testing.T) {
	store := reports.NewMemoryStore()
	p := newScriptedProvider(map[string]int{"best widgets?": 2})
	r := New(p, store, nil, Options{Concurrency: 1, Attempts: 3})

	report, err := r.Run(context.Background(), newJob(t, store))
	require.NoError(t, err)

	assert.Equal(t, reports.StatusCompleted, report.Status)
	assert.Equal(t, 3, p.callCount("best widgets?"))
	assert.Equal(t, 1, p.callCount("how to fix widgets?"))
}

func TestRun_PartialFailure(t *testing.T) {
	store := reports.NewMemoryStore()
	recorder := &progress.Recorder{}
	p := newScriptedProvider(map[string]int{"how to fix widgets?": 10})
	r := New(p, store, recorder, Options{Concurrency: 2, Attempts: 2})

	report, err := r.Run(context.Background(), newJob(t, store))
	require.NoError(t, err)

	// only the queries of the successful prompt are aggregated
	assert.Equal(t, 2, report.Analysis.TotalQueries)
	assert.Equal(t, 2, p.callCount("how to fix widgets?"))
	assert.Contains(t, recorder.Types(), progress.TypePromptFailed)
}

func TestRun_AllPromptsFail(t *testing.T) {
	store := reports.NewMemoryStore()
	recorder := &progress.Recorder{}
	p := newScriptedProvider(map[string]int{"best widgets?": 10, "how to fix widgets?": 10})
	r := New(p, store, recorder, Options{Concurrency: 2, Attempts: 1})

	job := newJob(t, store)
	_, err := r.Run(context.Background(), job)
	assert.ErrorIs(t, err, ErrAllPromptsFailed)

	stored, err := store.Get(context.Background(), job.ReportID)
	require.NoError(t, err)
	assert.Equal(t, reports.StatusFailed, stored.Status)
	assert.Equal(t, ErrAllPromptsFailed.Error(), stored.Error)

	types := recorder.Types()
	assert.Equal(t, progress.TypeFailed, types[len(types)-1])
}

func TestRun_NoPromptsSelected(t *testing.T) {
	store := reports.NewMemoryStore()
	r := New(newScriptedProvider(nil), store, nil, Options{})

	job := newJob(t, store)
	job.Prompts = []prompts.Prompt{{Prompt: "x", Selected: false}}

	_, err := r.Run(context.Background(), job)
	assert.ErrorIs(t, err, ErrNoPrompts)

	stored, err := store.Get(context.Background(), job.ReportID)
	require.NoError(t, err)
	assert.Equal(t, reports.StatusFailed, stored.Status)
}

func TestRun_BoundedConcurrency(t *testing.T) {
	store := reports.NewMemoryStore()
	p := newScriptedProvider(nil)
	p.delay = 20 * time.Millisecond
	r := New(p, store, nil, Options{Concurrency: 2})

	job := newJob(t, store)
	for i := range 6 {
		job.Prompts = append(job.Prompts, prompts.Prompt{
			Prompt:   "extra " + string(rune('a'+i)),
			Selected: true,
			Queries:  []string{"q"},
		})
	}

	_, err := r.Run(context.Background(), job)
	require.NoError(t, err)

	assert.LessOrEqual(t, p.maxSeen.Load(), int32(2))
}

func TestRun_Cancelled(t *testing.T) {
	store := reports.NewMemoryStore()
	p := newScriptedProvider(nil)
	p.delay = time.Second
	r := New(p, store, nil, Options{Concurrency: 2})

	job := newJob(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := store.Get(context.Background(), job.ReportID)
	require.NoError(t, err)
	assert.Equal(t, reports.StatusFailed, stored.Status)
}

func TestStartAndShutdown(t *testing.T) {
	store := reports.NewMemoryStore()
	recorder := &progress.Recorder{}
	r := New(provider.NewMock(), store, recorder, Options{Concurrency: 3})

	job := newJob(t, store)
	r.Start(job)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// shutdown waits for the job to record its outcome
	require.NoError(t, r.Shutdown(ctx))

	stored, err := store.Get(context.Background(), job.ReportID)
	require.NoError(t, err)
	assert.Contains(t, []string{reports.StatusCompleted, reports.StatusFailed}, stored.Status)

	types := recorder.Types()
	require.NotEmpty(t, types)
	assert.True(t, recorder.Events()[len(types)-1].Terminal())
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoff(0, 3))

	for attempt := 1; attempt <= 3; attempt++ {
		d := backoff(100*time.Millisecond, attempt)
		assert.GreaterOrEqual(t, d, time.Duration(attempt)*100*time.Millisecond)
		assert.LessOrEqual(t, d, time.Duration(attempt)*150*time.Millisecond)
	}
}

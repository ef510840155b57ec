package reports

import (
	"context"
	"slices"
	"sync"
	"time"

	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/visibility"
	"github.com/google/uuid"
)

// in-process store used when no database is configured and by tests
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*Report
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*Report),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID *string, url string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	report := &Report{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       url,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.reports[report.ID] = report

	out := *report
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}

	out := *report
	return &out, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]Report, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := []Report{}
	for _, r := range s.reports {
		if r.UserID != nil && *r.UserID == userID {
			owned = append(owned, *r)
		}
	}

	// newest first
	slices.SortFunc(owned, func(a, b Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(owned)
	if offset >= total {
		return []Report{}, total, nil
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return owned[offset:end], total, nil
}

func (s *MemoryStore) ListStale(_ context.Context, updatedBefore time.Time) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stale := []Report{}
	for _, r := range s.reports {
		if (r.Status == StatusPending || r.Status == StatusRunning) && r.UpdatedAt.Before(updatedBefore) {
			stale = append(stale, *r)
		}
	}

	slices.SortFunc(stale, func(a, b Report) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})

	return stale, nil
}

func (s *MemoryStore) MarkRunning(_ context.Context, id string) error {
	return s.update(id, func(r *Report) {
		r.Status = StatusRunning
	})
}

func (s *MemoryStore) Complete(_ context.Context, id string, analysis visibility.SiteAnalysis, ins insights.Insights) error {
	return s.update(id, func(r *Report) {
		a := Analysis(analysis)
		i := Insights(ins)

		r.Status = StatusCompleted
		r.Analysis = &a
		r.Insights = &i
		r.Error = ""
	})
}

func (s *MemoryStore) Fail(_ context.Context, id string, reason string) error {
	return s.update(id, func(r *Report) {
		r.Status = StatusFailed
		r.Error = reason
	})
}

func (s *MemoryStore) update(id string, fn func(r *Report)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}

	fn(report)
	report.UpdatedAt = s.now().UTC()

	return nil
}

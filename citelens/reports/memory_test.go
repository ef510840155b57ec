package reports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// store whose clock advances one minute per call
func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	return s
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	user := "user-1"

	created, err := s.Create(ctx, &user, "https://example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusPending, created.Status)
	assert.Nil(t, created.Analysis)

	require.NoError(t, s.MarkRunning(ctx, created.ID))

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	analysis := visibility.SiteAnalysis{URL: "https://example.com", TargetDomain: "example.com", TotalQueries: 1, OverallVisibility: 70}
	ins := insights.Insights{RetrievalRate: 1, MarketPosition: insights.PositionMarketLeader}
	require.NoError(t, s.Complete(ctx, created.ID, analysis, ins))

	got, err = s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, 70, got.Analysis.OverallVisibility)
	require.NotNil(t, got.Insights)
	assert.Equal(t, insights.PositionMarketLeader, got.Insights.MarketPosition)
}

func TestMemoryStore_Fail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	created, err := s.Create(ctx, nil, "https://example.com")
	require.NoError(t, err)

	require.NoError(t, s.Fail(ctx, created.ID, "all prompts failed"))

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "all prompts failed", got.Error)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.MarkRunning(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, s.Complete(ctx, "missing", visibility.SiteAnalysis{}, insights.Insights{}), ErrNotFound)
	assert.ErrorIs(t, s.Fail(ctx, "missing", "x"), ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	created, err := s.Create(ctx, nil, "https://example.com")
	require.NoError(t, err)

	created.Status = StatusCompleted

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestMemoryStore_ListByUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	alice, bob := "alice", "bob"

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := s.Create(ctx, &alice, "https://example.com")
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	_, err := s.Create(ctx, &bob, "https://other.com")
	require.NoError(t, err)
	_, err = s.Create(ctx, nil, "https://anon.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		limit   int
		offset  int
		wantIDs []string
	}{
		{name: "all newest first", limit: 10, wantIDs: []string{ids[2], ids[1], ids[0]}},
		{name: "limited", limit: 2, wantIDs: []string{ids[2], ids[1]}},
		{name: "offset", limit: 2, offset: 2, wantIDs: []string{ids[0]}},
		{name: "past end", limit: 2, offset: 5, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := s.ListByUser(ctx, alice, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, 3, total)

			got := make([]string, 0, len(list))
			for _, r := range list {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestReport_JSON(t *testing.T) {
	user := "u"
	analysis := Analysis(visibility.SiteAnalysis{TargetDomain: "example.com", Results: []visibility.QueryRecord{}})

	data, err := json.Marshal(Report{ID: "id", UserID: &user, Status: StatusCompleted, Analysis: &analysis})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "u", decoded["userId"])
	assert.Contains(t, decoded, "createdAt")
	assert.NotContains(t, decoded, "insights")

	inner, ok := decoded["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "example.com", inner["targetDomain"])
}

func TestAnalysis_ValueScan(t *testing.T) {
	in := Analysis(visibility.SiteAnalysis{URL: "https://example.com", OverallVisibility: 45})

	v, err := in.Value()
	require.NoError(t, err)

	var out Analysis
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in.URL, out.URL)
	assert.Equal(t, 45, out.OverallVisibility)

	var nilAnalysis *Analysis
	v, err = nilAnalysis.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

package reports

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/visibility"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("report not found")
)

// report lifecycle
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Report struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId,omitempty"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	Insights  *Insights `json:"insights,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// site analysis stored as JSONB
type Analysis visibility.SiteAnalysis

func (a *Analysis) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}

	bytes, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	return string(bytes), nil
}

func (a *Analysis) Scan(value any) error {
	bytes, ok := value.([]byte)
	if !ok || bytes == nil {
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// insights stored as JSONB
type Insights insights.Insights

func (i *Insights) Value() (driver.Value, error) {
	if i == nil {
		return nil, nil
	}

	bytes, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}

	return string(bytes), nil
}

func (i *Insights) Scan(value any) error {
	bytes, ok := value.([]byte)
	if !ok || bytes == nil {
		return nil
	}

	return json.Unmarshal(bytes, i)
}

// persists analysis reports
type Store interface {
	Create(ctx context.Context, userID *string, url string) (*Report, error)
	Get(ctx context.Context, id string) (*Report, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Report, int, error)
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, analysis visibility.SiteAnalysis, ins insights.Insights) error
	Fail(ctx context.Context, id string, reason string) error

	// unfinished reports last updated before the given time
	ListStale(ctx context.Context, updatedBefore time.Time) ([]Report, error)
}

type Repository struct {
	db *pgxpool.Pool
}

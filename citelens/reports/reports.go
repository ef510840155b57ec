package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/visibility"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// creates the reports table if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, querySchema); err != nil {
		return fmt.Errorf("failed to apply reports schema: %w", err)
	}

	return nil
}

func (r *Repository) Create(ctx context.Context, userID *string, url string) (*Report, error) {
	report, err := scanReport(r.db.QueryRow(ctx, queryCreate, userID, url))
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return report, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Report, error) {
	report, err := scanReport(r.db.QueryRow(ctx, queryGet, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Report, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCountByUser, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	rows, err := r.db.Query(ctx, queryListByUser, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}

	defer rows.Close()
	reports := []Report{}

	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *Repository) ListStale(ctx context.Context, updatedBefore time.Time) ([]Report, error) {
	rows, err := r.db.Query(ctx, queryListStale, updatedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale reports: %w", err)
	}

	defer rows.Close()
	reports := []Report{}

	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}

	return reports, rows.Err()
}

func (r *Repository) MarkRunning(ctx context.Context, id string) error {
	return r.exec(ctx, queryMarkRunning, id)
}

func (r *Repository) Complete(ctx context.Context, id string, analysis visibility.SiteAnalysis, ins insights.Insights) error {
	a := Analysis(analysis)
	i := Insights(ins)

	return r.exec(ctx, queryComplete, id, &a, &i)
}

func (r *Repository) Fail(ctx context.Context, id string, reason string) error {
	return r.exec(ctx, queryFail, id, reason)
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var (
		report   Report
		analysis Analysis
		ins      Insights
		rawA     []byte
		rawI     []byte
	)

	err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.URL,
		&report.Status,
		&rawA,
		&rawI,
		&report.Error,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rawA != nil {
		if err := analysis.Scan(rawA); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		report.Analysis = &analysis
	}

	if rawI != nil {
		if err := ins.Scan(rawI); err != nil {
			return nil, fmt.Errorf("failed to decode insights: %w", err)
		}
		report.Insights = &ins
	}

	return &report, nil
}

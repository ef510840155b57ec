package reports

import (
	"context"
	"time"

	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/progress"
)

const staleReason = "analysis interrupted before it finished"

// fails reports left pending or running by runs that no longer exist, such
// as runs lost to a server restart
type CleanupService struct {
	store          Store
	checkInterval  time.Duration
	staleThreshold time.Duration
	publisher      progress.Publisher
}

func NewCleanupService(
	store Store,
	checkInterval time.Duration,
	staleThreshold time.Duration,
	publisher progress.Publisher,
) *CleanupService {
	if publisher == nil {
		publisher = progress.Discard{}
	}

	return &CleanupService{
		store:          store,
		checkInterval:  checkInterval,
		staleThreshold: staleThreshold,
		publisher:      publisher,
	}
}

// begins the cleanup service background loop
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting report cleanup service",
		"check_interval", s.checkInterval,
		"stale_threshold", s.staleThreshold,
	)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("report cleanup service stopped")
			return
		case <-ticker.C:
			s.FailStale(ctx)
		}
	}
}

// fails every unfinished report not updated within the threshold and returns
// how many were failed
func (s *CleanupService) FailStale(ctx context.Context) int {
	threshold := time.Now().Add(-s.staleThreshold)

	stale, err := s.store.ListStale(ctx, threshold)
	if err != nil {
		logger.ErrorErr(err, "failed to list stale reports")
		return 0
	}

	if len(stale) == 0 {
		return 0
	}

	logger.Info("found stale reports to clean up", "count", len(stale))

	failed := 0
	for _, report := range stale {
		if err := s.store.Fail(ctx, report.ID, staleReason); err != nil {
			logger.ErrorErr(err, "failed to fail stale report",
				"report_id", report.ID,
				"updated_at", report.UpdatedAt,
			)
			continue
		}

		// subscribers still waiting on the run get a terminal event
		s.publisher.Publish(progress.Event{
			Type:      progress.TypeFailed,
			ReportID:  report.ID,
			Error:     staleReason,
			Timestamp: time.Now().UTC(),
		})

		failed++
	}

	return failed
}

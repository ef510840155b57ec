package websocket

import (
	"context"

	"codeberg.org/citelens/server/citelens/reports"
)

// looks up the report a client wants to follow
type ReportGetter interface {
	Get(ctx context.Context, id string) (*reports.Report, error)
}

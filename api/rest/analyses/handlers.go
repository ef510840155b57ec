package analyses

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/citelens/server/api/rest/pagination"
	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/auth"
	"codeberg.org/citelens/server/internal/crawler"
	"codeberg.org/citelens/server/internal/domains"
	"codeberg.org/citelens/server/internal/errors"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/runner"
	"github.com/gin-gonic/gin"
)

// CreateHandler records a pending report and starts the analysis run. The
// response returns as soon as the run is queued.
func CreateHandler(store reports.Store, starter JobStarter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		target, err := crawler.NormalizeURL(req.URL)
		if err != nil {
			errors.BadRequest(c, "invalid url", err)
			return
		}

		if len(prompts.Selected(req.Prompts)) == 0 {
			errors.BadRequest(c, "select at least one prompt", nil)
			return
		}

		targetDomain := req.TargetDomain
		if targetDomain == "" {
			targetDomain = domains.Normalize(target)
		}

		var owner *string
		if userID, ok := auth.GetUserID(c); ok {
			owner = &userID
		}

		report, err := store.Create(c.Request.Context(), owner, target)
		if err != nil {
			errors.InternalError(c, "failed to create report", err)
			return
		}

		starter.Start(runner.Job{
			ReportID:     report.ID,
			URL:          target,
			TargetDomain: targetDomain,
			Prompts:      req.Prompts,
		})

		logger.Info("analysis queued",
			"report_id", report.ID,
			"target", targetDomain,
			"prompts", len(req.Prompts),
		)

		c.JSON(http.StatusAccepted, CreateResponse{ID: report.ID, Status: report.Status})
	}
}

// GetHandler returns a report. Reports owned by a user are only visible to
// that user; anonymous reports are visible to anyone holding the id.
func GetHandler(store reports.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		report, err := store.Get(c.Request.Context(), id)
		if stderrors.Is(err, reports.ErrNotFound) {
			errors.ReportNotFound(c)
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to get report", err)
			return
		}

		if report.UserID != nil {
			userID, _ := auth.GetUserID(c)
			if userID != *report.UserID {
				errors.ReportNotFound(c)
				return
			}
		}

		c.JSON(http.StatusOK, report)
	}
}

// ListHandler lists the caller's reports, newest first
func ListHandler(store reports.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		params := pagination.FromQuery(c)

		list, total, err := store.ListByUser(c.Request.Context(), userID, params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list reports", err)
			return
		}

		c.JSON(http.StatusOK, ListResponse{
			Reports:    list,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

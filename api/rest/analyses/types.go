package analyses

import (
	"codeberg.org/citelens/server/api/rest/pagination"
	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/runner"
)

// starts analysis jobs in the background
type JobStarter interface {
	Start(job runner.Job)
}

type CreateRequest struct {
	URL          string           `json:"url" binding:"required,max=2048"`
	TargetDomain string           `json:"targetDomain" binding:"max=255"`
	Prompts      []prompts.Prompt `json:"prompts" binding:"required,min=1,max=20,dive"`
}

type CreateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ListResponse struct {
	Reports    []reports.Report `json:"reports"`
	Pagination pagination.Meta  `json:"pagination"`
}

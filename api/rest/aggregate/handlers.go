package aggregate

import (
	"net/http"

	"codeberg.org/citelens/server/internal/errors"
	"codeberg.org/citelens/server/internal/insights"
	"codeberg.org/citelens/server/internal/metrics"
	"codeberg.org/citelens/server/internal/payload"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/visibility"
	"github.com/gin-gonic/gin"
)

// Handler analyzes a provider payload supplied by the caller, synchronously.
// Payloads the adapters cannot read are rejected with 422.
func Handler(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.ValidationError(c, err)
		return
	}

	var (
		p     *payload.Payload
		shape payload.Shape
		err   error
	)

	if req.Shape != "" {
		shape = payload.Shape(req.Shape)
		p, err = payload.ParseAs(req.Payload, shape, req.TargetDomain)
	} else {
		p, shape, err = payload.Parse(req.Payload, req.TargetDomain)
	}

	if err != nil {
		metrics.RecordAggregation(string(shape), 0, err)
		errors.InvalidPayload(c, err)
		return
	}

	analysis, err := visibility.Analyze(p, req.URL, prompts.Selected(req.Prompts))
	metrics.RecordAggregation(string(shape), len(p.Queries), err)
	if err != nil {
		errors.InvalidPayload(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Shape:    string(shape),
		Analysis: analysis,
		Insights: insights.Compute(p, analysis),
	})
}

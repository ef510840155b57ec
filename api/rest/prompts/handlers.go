package prompts

import (
	"net/http"

	"codeberg.org/citelens/server/internal/crawler"
	"codeberg.org/citelens/server/internal/domains"
	"codeberg.org/citelens/server/internal/errors"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/prompts"
	"github.com/gin-gonic/gin"
)

// GenerateHandler drafts candidate prompts for the submitted site. Pages that
// cannot be fetched still get prompts, generated from the domain alone.
// With refresh set, cached prompts for the domain are dropped first.
func GenerateHandler(fetcher PageFetcher, generator prompts.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		target, err := crawler.NormalizeURL(req.URL)
		if err != nil {
			errors.BadRequest(c, "invalid url", err)
			return
		}

		site := prompts.Site{URL: target, Domain: domains.Normalize(target)}

		if req.Refresh {
			if cache, ok := generator.(CacheInvalidator); ok {
				if err := cache.Invalidate(c.Request.Context(), site); err != nil {
					errors.InternalError(c, "failed to refresh prompts", err)
					return
				}
			}
		}

		page, err := fetcher.Fetch(c.Request.Context(), target)
		if err != nil {
			logger.Warn("failed to fetch page, generating from domain only",
				"url", target,
				"error", err,
			)
		} else {
			site.Page = page
		}

		generated, err := generator.Generate(c.Request.Context(), site)
		if err != nil {
			errors.InternalError(c, "failed to generate prompts", err)
			return
		}

		resp := GenerateResponse{
			URL:     target,
			Domain:  site.Domain,
			Prompts: generated,
		}

		if site.Page != nil {
			resp.Title = site.Page.Title
		}

		c.JSON(http.StatusOK, resp)
	}
}

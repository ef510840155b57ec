package prompts

import (
	"context"

	"codeberg.org/citelens/server/internal/crawler"
	"codeberg.org/citelens/server/internal/prompts"
	"github.com/gin-gonic/gin"
)

// fetches the page prompts are generated for
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*crawler.Page, error)
}

// implemented by generators that cache their output
type CacheInvalidator interface {
	Invalidate(ctx context.Context, site prompts.Site) error
}

func RegisterRoutes(router *gin.RouterGroup, fetcher PageFetcher, generator prompts.Generator, limit gin.HandlerFunc) {
	router.POST("/prompts", limit, GenerateHandler(fetcher, generator))
}

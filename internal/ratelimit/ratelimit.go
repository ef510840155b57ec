// Package ratelimit throttles expensive API routes per client IP.
package ratelimit

import (
	"fmt"
	"strconv"
	"time"

	"codeberg.org/citelens/server/internal/errors"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const keyPrefix = "citelens:ratelimit"

// per-IP limiter for a group of routes
type Limiter struct {
	limiter *limiter.Limiter
}

// creates a limiter from a formatted rate such as "10-M"; a nil client keeps
// counters in process memory
func New(formatted string, client *redis.Client) (*Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	options := limiter.StoreOptions{
		Prefix:          keyPrefix,
		CleanUpInterval: time.Minute,
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, options)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(options)
	}

	return &Limiter{limiter: limiter.New(store, rate)}, nil
}

// returns a gin middleware rejecting clients over the limit with 429
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		state, err := l.limiter.Get(c.Request.Context(), key)
		if err != nil {
			// limiter backend down: let the request through
			logger.ErrorErr(err, "rate limiter unavailable", "ip", key)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))

		if state.Reached {
			metrics.RecordRateLimited(c.FullPath())
			logger.Warn("rate limit reached", "ip", key, "path", c.Request.URL.Path)

			errors.TooManyRequests(c, "too many analysis requests, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

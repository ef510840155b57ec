package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeberg.org/citelens/server/internal/domains"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const keyPrompts = "prompts:%s"

// caches generated prompts per domain in Redis
type CachedGenerator struct {
	next   Generator
	client *redis.Client
	ttl    time.Duration
}

func NewCachedGenerator(next Generator, client *redis.Client, ttl time.Duration) *CachedGenerator {
	return &CachedGenerator{next: next, client: client, ttl: ttl}
}

// returns cached prompts for the site's domain, generating and storing them
// on a miss; cache failures fall through to the wrapped generator
func (g *CachedGenerator) Generate(ctx context.Context, site Site) ([]Prompt, error) {
	key := cacheKey(site)

	cached, err := g.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var prompts []Prompt
		if jsonErr := json.Unmarshal(cached, &prompts); jsonErr == nil {
			metrics.RecordPromptCache("hit")
			return prompts, nil
		}

		metrics.RecordPromptCache("error")
		logger.Warn("discarding unreadable cached prompts", "key", key)

	case errors.Is(err, redis.Nil):
		metrics.RecordPromptCache("miss")

	default:
		metrics.RecordPromptCache("error")
		logger.ErrorErr(err, "prompt cache lookup failed", "key", key)
	}

	prompts, err := g.next.Generate(ctx, site)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(prompts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompts: %w", err)
	}

	if err := g.client.Set(ctx, key, data, g.ttl).Err(); err != nil {
		logger.ErrorErr(err, "failed to cache prompts", "key", key)
	}

	return prompts, nil
}

// removes cached prompts for a site
func (g *CachedGenerator) Invalidate(ctx context.Context, site Site) error {
	if err := g.client.Del(ctx, cacheKey(site)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate prompts: %w", err)
	}

	return nil
}

func cacheKey(site Site) string {
	source := site.Domain
	if source == "" {
		source = site.URL
	}

	return fmt.Sprintf(keyPrompts, domains.Normalize(source))
}

package main

import (
	"time"

	"codeberg.org/citelens/server/internal/config"
	"codeberg.org/citelens/server/internal/crawler"
	"codeberg.org/citelens/server/internal/llm"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/provider"
	"github.com/redis/go-redis/v9"
)

const crawlTimeout = 15 * time.Second

// creates and configures all service clients; missing API keys degrade to
// canned prompts and the mock provider
func InitializeServices(cfg *config.Config, redisClient *redis.Client) *Services {
	var generator prompts.Generator = prompts.CannedGenerator{}

	if textGenerator, err := llm.NewTextGenerator(cfg.AnthropicKey, ""); err != nil {
		logger.Warn("prompt generation falls back to canned prompts", "reason", err.Error())
	} else {
		generator = prompts.NewLLMGenerator(textGenerator, prompts.CannedGenerator{}, 0)
	}

	if redisClient != nil {
		generator = prompts.NewCachedGenerator(generator, redisClient, cfg.PromptCacheTTL)
	}

	var answerProvider provider.Provider
	if cfg.GeminiKey != "" {
		answerProvider = provider.NewGemini(provider.GeminiConfig{
			APIKey: cfg.GeminiKey,
			Model:  cfg.GeminiModel,
			RPS:    cfg.ProviderRPS,
		})
	} else {
		logger.Warn("GEMINI_API_KEY not set, using the mock answer provider")
		answerProvider = provider.NewMock()
	}

	return &Services{
		Crawler:   crawler.New(crawlTimeout),
		Generator: generator,
		Provider:  answerProvider,
	}
}

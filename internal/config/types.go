package config

import "time"

type Config struct {
	Port              string
	Environment       string
	DatabaseURL       string
	RedisURL          string
	AnthropicKey      string
	GeminiKey         string
	GeminiModel       string
	JWTSecret         string
	AllowedOrigins    []string
	RateLimit         string
	RunnerConcurrency int
	ProviderRPS       float64
	PromptCacheTTL    time.Duration
}

// flags of the visibility CLI
type Flags struct {
	File    string
	Target  string
	URL     string
	Prompts string
	Format  string
}

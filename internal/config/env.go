package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort              = "8080"
	defaultEnvironment       = "development"
	defaultGeminiModel       = "gemini-2.5-flash"
	defaultRateLimit         = "10-M"
	defaultRunnerConcurrency = 3
	defaultProviderRPS       = 2
	defaultPromptCacheTTL    = 24 * time.Hour
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	environment := getEnv("ENVIRONMENT", defaultEnvironment)
	jwtSecret := os.Getenv("JWT_SECRET")

	if jwtSecret == "" && environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
	}

	concurrency, err := getInt("RUNNER_CONCURRENCY", defaultRunnerConcurrency)
	if err != nil {
		return nil, err
	}

	if concurrency < 1 {
		return nil, fmt.Errorf("RUNNER_CONCURRENCY must be at least 1, got %d", concurrency)
	}

	rps, err := getFloat("PROVIDER_RPS", defaultProviderRPS)
	if err != nil {
		return nil, err
	}

	ttl, err := getDuration("PROMPT_CACHE_TTL", defaultPromptCacheTTL)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:              getEnv("PORT", defaultPort),
		Environment:       environment,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		AnthropicKey:      os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", defaultGeminiModel),
		JWTSecret:         jwtSecret,
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),
		RateLimit:         getEnv("RATE_LIMIT", defaultRateLimit),
		RunnerConcurrency: concurrency,
		ProviderRPS:       rps,
		PromptCacheTTL:    ttl,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

// comma separated list, blanks dropped
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

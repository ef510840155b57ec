package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"codeberg.org/citelens/server/internal/citations"
	"codeberg.org/citelens/server/internal/payload"
	"golang.org/x/time/rate"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel = "gemini-2.5-flash"
)

// shared HTTP client for Gemini API calls
var geminiHTTPClient = &http.Client{
	Timeout: 90 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

var domainPattern = regexp.MustCompile(`(?i)([a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,})`)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string  // overrides the API root, used in tests
	RPS     float64 // requests per second, 0 means 2
}

// Gemini generateContent client with Google Search grounding
type Gemini struct {
	config     GeminiConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewGemini(config GeminiConfig) *Gemini {
	if config.Model == "" {
		config.Model = defaultGeminiModel
	}

	if config.BaseURL == "" {
		config.BaseURL = geminiBaseURL
	}

	if config.RPS <= 0 {
		config.RPS = 2
	}

	return &Gemini{
		config:     config,
		httpClient: geminiHTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RPS), 1),
	}
}

func (g *Gemini) Name() string {
	return "gemini"
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
	Tools    []geminiTool    `json:"tools"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiTool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type generateResponse struct {
	Candidates []struct {
		Content           geminiContent     `json:"content"`
		GroundingMetadata groundingMetadata `json:"groundingMetadata"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

type groundingMetadata struct {
	WebSearchQueries []string           `json:"webSearchQueries"`
	GroundingChunks  []groundingChunk   `json:"groundingChunks"`
	GroundingSupport []groundingSupport `json:"groundingSupports"`
}

type groundingChunk struct {
	Web struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	} `json:"web"`
}

type groundingSupport struct {
	Segment struct {
		StartIndex int    `json:"startIndex"`
		EndIndex   int    `json:"endIndex"`
		Text       string `json:"text"`
	} `json:"segment"`
	GroundingChunkIndices []int `json:"groundingChunkIndices"`
}

func (g *Gemini) Run(ctx context.Context, req Request) (*Result, error) {
	body := generateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		Tools:    []geminiTool{{}},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", strings.TrimSuffix(g.config.BaseURL, "/"), url.PathEscape(g.config.Model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.config.APIKey)

	// rate limiting
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(msg))
	}

	var apiResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := apiResp.Candidates[0]

	var answer strings.Builder
	for _, part := range candidate.Content.Parts {
		answer.WriteString(part.Text)
	}

	model := apiResp.ModelVersion
	if model == "" {
		model = g.config.Model
	}

	return &Result{
		Model:    model,
		Answer:   answer.String(),
		Searches: groundedSearches(candidate.GroundingMetadata),
	}, nil
}

// turns grounding metadata into per-query citation maps. Supports are ordered
// by where they start in the answer; the n-th support is citation n for every
// chunk it references. Chunks cannot be attributed to a single query, so every
// query carries all sources.
func groundedSearches(meta groundingMetadata) []payload.Search {
	if len(meta.WebSearchQueries) == 0 {
		return []payload.Search{}
	}

	supports := append([]groundingSupport(nil), meta.GroundingSupport...)
	sort.SliceStable(supports, func(i, j int) bool {
		return supports[i].Segment.StartIndex < supports[j].Segment.StartIndex
	})

	positions := make([][]int, len(meta.GroundingChunks))
	for i, support := range supports {
		for _, idx := range support.GroundingChunkIndices {
			if idx >= 0 && idx < len(positions) {
				positions[idx] = append(positions[idx], i+1)
			}
		}
	}

	sources := citations.Map{}
	for i, chunk := range meta.GroundingChunks {
		sources = sources.Add(chunkDomain(chunk), positions[i]...)
	}

	searches := make([]payload.Search, 0, len(meta.WebSearchQueries))
	for _, q := range meta.WebSearchQueries {
		searches = append(searches, payload.Search{Query: q, Sources: sources.Clone()})
	}

	return searches
}

// grounding chunk titles carry the source domain; the uri is a redirect
func chunkDomain(chunk groundingChunk) string {
	if m := domainPattern.FindString(chunk.Web.Title); m != "" {
		return strings.ToLower(m)
	}

	if chunk.Web.Title != "" {
		return strings.ToLower(strings.TrimSpace(chunk.Web.Title))
	}

	return chunk.Web.URI
}

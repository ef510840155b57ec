package aggregate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), func(c *gin.Context) { c.Next() })

	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/aggregate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	return w
}

func TestHandler_PerQuery(t *testing.T) {
	body := `{
		"url": "https://example.com/widgets",
		"prompts": [{"prompt": "Which widgets should I buy?", "category": "Shopping", "selected": true}],
		"payload": {
			"target_domain": "example.com",
			"per_query": {
				"best widgets": {
					"prompts_using_query": ["Which widgets should I buy?"],
					"domains_with_citations": {"competitor.com": [1], "example.com": [3]}
				}
			}
		}
	}`

	w := post(newRouter(), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "per_query", resp.Shape)
	assert.Equal(t, "https://example.com/widgets", resp.Analysis.URL)
	assert.Equal(t, "example.com", resp.Analysis.TargetDomain)
	assert.Equal(t, 70, resp.Analysis.OverallVisibility)
	assert.Equal(t, "Shopping", resp.Analysis.TopCategory)
	require.Len(t, resp.Insights.KeyCompetitors, 1)
	assert.Equal(t, "competitor.com", resp.Insights.KeyCompetitors[0].Domain)
}

func TestHandler_SearchDataWithTarget(t *testing.T) {
	body := `{
		"targetDomain": "bikes.de",
		"payload": {"cheapest bicycle": {"cheap bikes": {"bikes.de": [1]}}}
	}`

	w := post(newRouter(), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "search_data", resp.Shape)
	assert.Equal(t, 90, resp.Analysis.OverallVisibility)
	assert.Equal(t, "unknown", resp.Analysis.Results[0].SourcePrompt)
}

func TestHandler_ForcedShape(t *testing.T) {
	body := `{"shape": "model_runs", "targetDomain": "a.com", "payload": {"not": "an array"}}`

	w := post(newRouter(), body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing payload", body: `{"targetDomain":"a.com"}`, want: http.StatusBadRequest},
		{name: "unknown shape", body: `{"shape":"csv","payload":{}}`, want: http.StatusBadRequest},
		{name: "scalar payload", body: `{"payload": 42}`, want: http.StatusUnprocessableEntity},
		{name: "missing per_query", body: `{"payload": {"target_domain": "a.com"}}`, want: http.StatusUnprocessableEntity},
		{name: "no target anywhere", body: `{"payload": {"p": {"q": {"x.com": [1]}}}}`, want: http.StatusUnprocessableEntity},
		{name: "payload without query collection", body: `{"targetDomain": "example.com", "payload": {"url": "https://example.com"}}`, want: http.StatusUnprocessableEntity},
		{name: "camel case canonical payload", body: `{"targetDomain": "example.com", "payload": {"targetDomain": "example.com", "perQuery": {"q": {"domains_with_citations": {"example.com": [2]}}}}}`, want: http.StatusUnprocessableEntity},
		{name: "array of scalars", body: `{"targetDomain": "a.com", "payload": [1, 2, 3]}`, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newRouter(), tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

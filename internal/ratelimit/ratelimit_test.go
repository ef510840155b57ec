package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/analyses", l.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	return router
}

func send(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyses", nil)
	req.RemoteAddr = ip + ":1234"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestNew_InvalidRate(t *testing.T) {
	_, err := New("ten per minute", nil)
	assert.Error(t, err)
}

func TestMiddleware_MemoryStore(t *testing.T) {
	l, err := New("2-M", nil)
	require.NoError(t, err)

	router := newRouter(l)

	first := send(router, "10.0.0.1")
	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusAccepted, send(router, "10.0.0.1").Code)

	blocked := send(router, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Contains(t, blocked.Body.String(), "too_many_requests")

	// other clients keep their own budget
	assert.Equal(t, http.StatusAccepted, send(router, "10.0.0.2").Code)
}

func TestMiddleware_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close() //nolint:errcheck

	l, err := New("1-H", client)
	require.NoError(t, err)

	router := newRouter(l)

	assert.Equal(t, http.StatusAccepted, send(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(router, "10.0.0.1").Code)
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestLimiter_PerKeyBurst(t *testing.T) {
	l := New(1, 2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	// 不同 key 互不影响
	assert.True(t, l.Allow("b"))
}

func TestMiddleware_Rejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(1, 1).Middleware())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Contains(t, second.Body.String(), `"code":429`)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, "60", retryAfter(0))
	assert.Equal(t, "1", retryAfter(5))
	assert.Equal(t, "4", retryAfter(rate.Limit(0.25)))
}

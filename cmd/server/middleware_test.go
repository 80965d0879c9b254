package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/portfolio/presence/internal/config"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() }) //nolint:errcheck,gosec

	stores := map[string]*redis.Client{
		"memory": nil,
		"redis":  redisClient,
	}

	for name, client := range stores {
		t.Run(name, func(t *testing.T) {
			middleware, err := RateLimitMiddleware(&config.Config{HTTPRateLimit: "2-M"}, client)
			require.NoError(t, err)

			router := gin.New()
			router.Use(middleware)
			router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			codes := make([]int, 0, 3)
			for range 3 {
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
				codes = append(codes, w.Code)
			}

			assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
		})
	}
}

func TestRateLimitMiddlewareRejectsBadFormat(t *testing.T) {
	_, err := RateLimitMiddleware(&config.Config{HTTPRateLimit: "lots"}, nil)
	assert.Error(t, err)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "listed origin", allowed: []string{"https://site.dev"}, origin: "https://site.dev", want: "https://site.dev"},
		{name: "unlisted origin", allowed: []string{"https://site.dev"}, origin: "https://evil.dev", want: ""},
		{name: "unconfigured allows all", origin: "https://any.dev", want: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(&config.Config{AllowedOrigins: tt.allowed}))
			router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tt.origin)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

package middleware_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contact-mail-proxy/internal/delivery/http/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(mw...)
	r.POST("/send-email", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateLimitMemoryStore(t *testing.T) {
	clk := &clock{now: time.Now()}
	store := middleware.NewMemoryStoreWithClock(clk.Now)
	r := newEngine(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:  2,
		Window: 15 * time.Minute,
		Store:  store,
	}))

	for i := 0; i < 2; i++ {
		w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("Should reject the request after the limit with Retry-After", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
	})

	t.Run("Should reset once the window elapses", func(t *testing.T) {
		clk.Advance(15*time.Minute + time.Second)
		w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	})
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	r := newEngine(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		Store:  middleware.NewMemoryStore(),
	}))

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	second := httptest.NewRequest(http.MethodGet, "/ping", nil)
	second.RemoteAddr = "10.0.0.2:1234"

	assert.Equal(t, http.StatusOK, do(r, first).Code)
	assert.Equal(t, http.StatusOK, do(r, second).Code)

	again := httptest.NewRequest(http.MethodGet, "/ping", nil)
	again.RemoteAddr = "10.0.0.1:5678"
	assert.Equal(t, http.StatusTooManyRequests, do(r, again).Code)
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	store := middleware.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Incr(context.Background(), "k", time.Minute)
		}()
	}
	wg.Wait()

	count, _, err := store.Incr(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 51, count)
}

func TestMemoryStoreCountsSurviveCleanup(t *testing.T) {
	var offset atomic.Int64
	base := time.Now()
	store := middleware.NewMemoryStoreWithClock(func() time.Time {
		return base.Add(time.Duration(offset.Load()))
	})

	const keys, perKey = 200, 10
	for k := 0; k < keys; k++ {
		_, _, _ = store.Incr(context.Background(), fmt.Sprintf("k%d", k), time.Minute)
	}
	// Every entry is now expired and eligible for cleanup.
	offset.Store(int64(2 * time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.StartCleanup(ctx, time.Microsecond)

	var wg sync.WaitGroup
	for k := 0; k < keys; k++ {
		for i := 0; i < perKey; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, _ = store.Incr(context.Background(), fmt.Sprintf("k%d", k), time.Minute)
			}()
		}
	}
	wg.Wait()

	for k := 0; k < keys; k++ {
		count, _, err := store.Incr(context.Background(), fmt.Sprintf("k%d", k), time.Minute)
		require.NoError(t, err)
		assert.Equal(t, perKey+1, count, "key k%d", k)
	}
}

func TestRateLimitRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := newEngine(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:     2,
		Window:    15 * time.Minute,
		KeyPrefix: "rl:mail:",
		Store:     middleware.NewRedisStore(client),
	}))

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodPost, "/send-email", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodPost, "/send-email", nil)).Code)
	assert.True(t, mr.Exists("rl:mail:192.0.2.1"))

	mr.FastForward(15*time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodPost, "/send-email", nil)).Code)
}

func TestRateLimitFallsBackWhenRedisFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	r := newEngine(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:    1,
		Window:   time.Minute,
		Store:    middleware.NewRedisStore(client),
		Fallback: middleware.NewMemoryStore(),
	}))

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
}

func TestRateLimitFailsOpenWithoutFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	r := newEngine(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		Store:  middleware.NewRedisStore(client),
	}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
}

func TestRateLimitFailClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	r := newEngine(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:      1,
		Window:     time.Minute,
		Store:      middleware.NewRedisStore(client),
		FailClosed: true,
	}))

	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCORSMiddleware(t *testing.T) {
	r := newEngine(middleware.CORSMiddleware([]string{"https://acme.example.com"}, true))

	t.Run("Should allow listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/send-email", nil)
		req.Header.Set("Origin", "https://acme.example.com")
		w := do(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://acme.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should reject unlisted origin before the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/send-email", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := do(r, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.NotContains(t, w.Body.String(), "ok")
	})

	t.Run("Should let requests without Origin through", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodPost, "/send-email", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should answer allowed preflight with 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/send-email", nil)
		req.Header.Set("Origin", "https://acme.example.com")
		w := do(r, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Should reject localhost in production", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/send-email", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		assert.Equal(t, http.StatusForbidden, do(r, req).Code)
	})
}

func TestCORSMiddlewareAllowsDevOriginsOutsideProduction(t *testing.T) {
	r := newEngine(middleware.CORSMiddleware(nil, false))

	req := httptest.NewRequest(http.MethodPost, "/send-email", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestBodyLimit(t *testing.T) {
	r := newEngine(middleware.BodyLimit(16))

	t.Run("Should reject oversized declared body with 413", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/send-email", strings.NewReader(strings.Repeat("a", 64)))
		w := do(r, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Request body too large", body["error"])
	})

	t.Run("Should pass small bodies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/send-email", strings.NewReader("{}"))
		assert.Equal(t, http.StatusOK, do(r, req).Code)
	})
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	t.Run("Should echo a well formed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "abc-12345678")
		assert.Equal(t, "abc-12345678", do(r, req).Header().Get("X-Request-ID"))
	})

	t.Run("Should replace a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "bad id\r\n")
		got := do(r, req).Header().Get("X-Request-ID")
		assert.NotEqual(t, "bad id", got)
		assert.Len(t, got, 36)
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(nopLogger()))
	r.GET("/panic", func(c *gin.Context) { panic("secret detail") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret detail")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotEmpty(t, body["errorId"])
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"contact-mail-proxy/internal/delivery/http/response"
	"contact-mail-proxy/pkg/apperror"
	"contact-mail-proxy/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore counts requests per key in a fixed window. Incr must be atomic
// under concurrent callers.
type RateLimitStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
	Name() string
}

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix, keeps route groups in separate windows
	KeyPrefix string
	// Primary store; Fallback is used when Primary errors
	Store    RateLimitStore
	Fallback RateLimitStore
	// Whether to reject when the primary store errors and there is no fallback
	FailClosed bool
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in milliseconds
// Returns: [current_count, ttl_remaining_ms]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`

var rateLimitScript = goredis.NewScript(rateLimitLuaScript)

// RedisStore keeps counters in Redis so every instance shares one window.
type RedisStore struct {
	client *goredis.Client
}

func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Name() string { return "redis" }

// Incr checks rate limit using Redis with atomic Lua script
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	result, err := rateLimitScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)
	if ttl < 0 {
		ttl = window.Milliseconds()
	}

	return int(count), time.Now().Add(time.Duration(ttl) * time.Millisecond), nil
}

// rateLimitEntry tracks request count for a key
type rateLimitEntry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	entries sync.Map
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// NewMemoryStoreWithClock is used by tests to move time forward.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()
	var entry *rateLimitEntry
	for {
		entryI, _ := s.entries.LoadOrStore(key, &rateLimitEntry{resetAt: now.Add(window)})
		entry = entryI.(*rateLimitEntry)
		entry.mu.Lock()
		// sweep may have dropped the entry between the load and the lock
		if cur, ok := s.entries.Load(key); ok && cur == entryI {
			break
		}
		entry.mu.Unlock()
	}
	defer entry.mu.Unlock()

	// Reset if window expired
	if !now.Before(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(window)
	}
	entry.count++

	return entry.count, entry.resetAt, nil
}

// StartCleanup drops expired entries every interval until ctx is done.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.entries.Range(func(key, value interface{}) bool {
		entry := value.(*rateLimitEntry)
		entry.mu.Lock()
		if !now.Before(entry.resetAt) {
			s.entries.CompareAndDelete(key, value)
		}
		entry.mu.Unlock()
		return true
	})
}

// RateLimitMiddleware creates a rate limiting middleware with the given config
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.Store == nil {
		config.Store = NewMemoryStore()
	}

	return func(c *gin.Context) {
		fullKey := config.KeyPrefix + config.KeyFunc(c)

		count, resetAt, err := config.Store.Incr(c.Request.Context(), fullKey, config.Window)
		if err != nil {
			logRateLimitError(c, err)
			if config.Fallback == nil {
				if config.FailClosed {
					response.FromAppError(c, apperror.ServiceUnavailable("Service temporarily unavailable. Please try again.", err))
					c.Abort()
					return
				}
				c.Next()
				return
			}
			count, resetAt, _ = config.Fallback.Incr(c.Request.Context(), fullKey, config.Window)
		}

		remaining := config.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if count > config.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			security.DefaultLogger().LogRateLimitTriggered(
				c.Request.Context(),
				c.ClientIP(),
				c.GetHeader("User-Agent"),
				c.GetString(requestIDKey),
				c.FullPath(),
			)

			response.Error(c, http.StatusTooManyRequests, "Too many requests, please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// logRateLimitError logs store errors
func logRateLimitError(c *gin.Context, err error) {
	security.DefaultLogger().Log(c.Request.Context(), security.SecurityEvent{
		Event:       security.EventServerError,
		SubjectType: "system",
		IP:          c.ClientIP(),
		RequestID:   c.GetString(requestIDKey),
		Details: map[string]interface{}{
			"error_type": "rate_limit_store",
			"error":      err.Error(),
		},
	})
}

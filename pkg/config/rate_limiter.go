package config

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskmanager/internal/core/telemetry"
	. "taskmanager/pkg"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type RateLimitEndpointConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(*gin.Context) string
}

type RateLimiter struct {
	cache   *cache.Cache
	config  map[string]RateLimitEndpointConfig
	logger  *zap.Logger
	metrics *telemetry.AppMetrics
	mutex   sync.RWMutex
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

// NewRateLimiter builds per-endpoint limits from configs. Anonymous endpoints
// (signup, auth, default) are keyed by client ip, the rest by the
// authenticated user.
func NewRateLimiter(logger *zap.Logger, metrics *telemetry.AppMetrics, configs map[string]RateLimitConfig) *RateLimiter {
	c := cache.New(5*time.Minute, 10*time.Minute)

	endpoints := make(map[string]RateLimitEndpointConfig, len(configs)+1)

	for key, limit := range configs {
		keyFunc := getUserID

		if key == "default" || strings.Contains(key, "/signup") || strings.Contains(key, "/auth") {
			keyFunc = GetClientIP
		}

		endpoints[key] = RateLimitEndpointConfig{
			Requests: limit.Requests,
			Window:   limit.Window,
			KeyFunc:  keyFunc,
		}
	}

	if _, ok := endpoints["default"]; !ok {
		endpoints["default"] = RateLimitEndpointConfig{
			Requests: 60,
			Window:   time.Minute,
			KeyFunc:  GetClientIP,
		}
	}

	return &RateLimiter{
		cache:   c,
		config:  endpoints,
		logger:  logger,
		metrics: metrics,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		normalizedPath := normalizePath(path)
		methodPath := c.Request.Method + " " + normalizedPath

		rl.mutex.RLock()
		config, exists := rl.config[methodPath]
		if !exists {
			config, exists = rl.config[normalizedPath]
			if !exists {
				config = rl.config["default"]
			}
		}
		rl.mutex.RUnlock()

		key := rl.generateKey(c, methodPath, config.KeyFunc)

		rl.logger.Debug("Rate limit check",
			zap.String("methodPath", methodPath),
			zap.String("key", key),
			zap.Int("limit", config.Requests),
			zap.Duration("window", config.Window))

		allowed, remaining, resetTime := rl.checkRateLimit(key, config)

		keyType := "ip"
		if strings.Contains(key, "user_") {
			keyType = "user"
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), normalizedPath, keyType)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", config.Requests),
				zap.Duration("window", config.Window))

			retryAfter := int(time.Until(resetTime).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code": "RATE_LIMITED",
					"errors": []gin.H{
						{
							"field":   "",
							"message": fmt.Sprintf("Too many requests. Limit: %d per %v", config.Requests, config.Window),
						},
					},
				},
			})
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), normalizedPath, keyType)
		}

		c.Next()
	}
}

func (rl *RateLimiter) checkRateLimit(key string, config RateLimitEndpointConfig) (bool, int, time.Time) {
	now := time.Now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if entry, found := rl.cache.Get(key); found {
		rateLimitEntry := entry.(RateLimitEntry)

		if now.After(rateLimitEntry.ResetTime) {
			return rl.startWindow(key, config, now)
		}

		if rateLimitEntry.Count >= config.Requests {
			return false, 0, rateLimitEntry.ResetTime
		}

		rateLimitEntry.Count++
		rl.cache.Set(key, rateLimitEntry, time.Until(rateLimitEntry.ResetTime))

		return true, config.Requests - rateLimitEntry.Count, rateLimitEntry.ResetTime
	}

	return rl.startWindow(key, config, now)
}

func (rl *RateLimiter) startWindow(key string, config RateLimitEndpointConfig, now time.Time) (bool, int, time.Time) {
	resetTime := now.Add(config.Window)

	rl.cache.Set(key, RateLimitEntry{Count: 1, ResetTime: resetTime}, config.Window)

	return true, config.Requests - 1, resetTime
}

// normalizePath folds raw task paths onto their route pattern:
// /tasks/<id> -> /tasks/:uuid, /tasks/<id>/done -> /tasks/:uuid/done.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/tasks/") {
		return path
	}

	parts := strings.Split(path, "/")

	if parts[2] == "" {
		return path
	}

	switch parts[2] {
	case "grouped", "undo", ":uuid":
		return path
	}

	parts[2] = ":uuid"

	return strings.Join(parts, "/")
}

func (rl *RateLimiter) generateKey(c *gin.Context, path string, keyFunc func(*gin.Context) string) string {
	return fmt.Sprintf("rate_limit:%s:%s", path, keyFunc(c))
}

func getUserID(c *gin.Context) string {
	if userID, exists := c.Get("x-user-id"); exists {
		return fmt.Sprintf("user_%v", userID)
	}
	return GetClientIP(c)
}

func (rl *RateLimiter) SetConfig(path string, config RateLimitEndpointConfig) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.config[path] = config
}

func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	return map[string]interface{}{
		"active_entries": rl.cache.ItemCount(),
		"configs":        len(rl.config),
	}
}

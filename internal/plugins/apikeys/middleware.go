package apikeys

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// apiKeyContextKey is the Echo context key for the authenticated API key.
const apiKeyContextKey = "api_key"

// GetAPIKey retrieves the authenticated API key from the request context.
func GetAPIKey(c echo.Context) *APIKey {
	key, _ := c.Get(apiKeyContextKey).(*APIKey)
	return key
}

// RequireAPIKey returns middleware that authenticates requests via API key.
// Extracts the key from the Authorization header, validates it with bcrypt,
// and records the key's last use.
func RequireAPIKey(service KeyService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "api key required")
			}

			rawKey := strings.TrimPrefix(authHeader, "Bearer ")
			if rawKey == authHeader {
				// No "Bearer " prefix found.
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format, use: Bearer <key>")
			}

			key, err := service.AuthenticateKey(ctx, rawKey)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}

			c.Set(apiKeyContextKey, key)

			// Update last-used timestamp (fire-and-forget). Use background
			// context since the request context may be cancelled before the
			// goroutine completes.
			ip := c.RealIP()
			go func() {
				_ = service.UpdateKeyLastUsed(context.Background(), key.ID, ip)
			}()

			return next(c)
		}
	}
}

// RequirePermission returns middleware that checks the API key has a
// specific permission.
func RequirePermission(perm Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetAPIKey(c)
			if key == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "api key required")
			}
			if !key.HasPermission(perm) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions: requires "+string(perm))
			}
			return next(c)
		}
	}
}

// RequireWorldMatch returns middleware that verifies the API key's world
// matches the :id parameter in the URL. Prevents using a key scoped to one
// world to read or modify another.
func RequireWorldMatch() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetAPIKey(c)
			if key == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "api key required")
			}
			if c.Param("id") != key.WorldID {
				return echo.NewHTTPError(http.StatusForbidden, "api key not authorized for this world")
			}
			return next(c)
		}
	}
}

// RequireAdmin returns middleware that guards key-management endpoints with
// the static admin token. Constant-time comparison so the token cannot be
// probed byte by byte.
func RequireAdmin(adminToken string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "admin token required")
			}
			return next(c)
		}
	}
}

// --- Rate Limiting ---

// rateLimiter tracks per-key request counts using a fixed window.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[int]*rateLimitWindow // Keyed by API key ID.
}

// rateLimitWindow tracks requests in the current minute.
type rateLimitWindow struct {
	count   int
	resetAt time.Time
}

// globalRateLimiter is the singleton rate limiter instance.
var globalRateLimiter = &rateLimiter{
	windows: make(map[int]*rateLimitWindow),
}

// RateLimit returns middleware that enforces per-key request rate limits.
// Uses a simple fixed-window counter per minute.
func RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetAPIKey(c)
			if key == nil {
				return next(c)
			}

			globalRateLimiter.mu.Lock()
			window, exists := globalRateLimiter.windows[key.ID]
			now := time.Now()

			if !exists || now.After(window.resetAt) {
				// New window.
				window = &rateLimitWindow{
					count:   0,
					resetAt: now.Add(time.Minute),
				}
				globalRateLimiter.windows[key.ID] = window
			}

			window.count++
			remaining := key.RateLimit - window.count
			globalRateLimiter.mu.Unlock()

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(key.RateLimit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))

			if remaining < 0 {
				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}

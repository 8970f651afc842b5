package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/ratelimit"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// RateLimiter returns a huma middleware that limits requests to the
// state service's own API, keyed by client IP and User-Agent.
//
// Per-endpoint limits come from operation metadata under
// ratelimit.MetadataKey; endpoints without metadata get defaultLimit
// per defaultWindow. The limiter fails open, so this middleware can
// reject with 429 but never with a storage error.
func RateLimiter(
	api huma.API,
	limiter *ratelimit.Limiter,
	defaultLimit int64,
	defaultWindow time.Duration,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		limits := []ratelimit.LimitConfig{{Window: defaultWindow, Max: defaultLimit}}

		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil {
			if cfg.Disabled {
				next(ctx)

				return
			}

			if len(cfg.Limits) > 0 {
				limits = cfg.Limits
			}
		}

		key := clientKey(ctx)
		path := operationPath(ctx)

		for _, limit := range limits {
			// Window length is part of the key so each configured
			// limit tracks its own counter.
			windowKey := key + ":" + path + ":" + strconv.FormatInt(limit.Window.Milliseconds(), 10)

			result := limiter.Check(ctx.Context(), windowKey, limit.Max, limit.Window)

			ctx.SetHeader("X-RateLimit-Limit", strconv.FormatInt(limit.Max, 10))
			ctx.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			ctx.SetHeader("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int64(time.Until(result.ResetAt) / time.Second)
				if retryAfter < 1 {
					retryAfter = 1
				}

				ctx.SetHeader("Retry-After", strconv.FormatInt(retryAfter, 10))

				logger.Warn("rate limit exceeded",
					zap.String("path", path),
					zap.String("method", ctx.Method()),
					zap.Int64("max", limit.Max),
					zap.Duration("window", limit.Window),
					zap.String("client_ip", clientIP(ctx)))

				msg := fmt.Sprintf("rate limit exceeded: more than %d requests in %s",
					limit.Max, limit.Window)
				_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)

				return
			}
		}

		next(ctx)
	}
}

// operationPath extracts the route template from the operation, if available.
func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

// clientKey generates a unique key for rate limiting based on IP and User-Agent.
func clientKey(ctx huma.Context) string {
	ip := clientIP(ctx)
	ua := ctx.Header("User-Agent")

	hash := sha256.Sum256([]byte(ip + "|" + ua))

	return hex.EncodeToString(hash[:])
}

// clientIP extracts the client IP from the request, considering proxies.
func clientIP(ctx huma.Context) string {
	// Check X-Forwarded-For header (may contain multiple IPs)
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	host := ctx.Host()

	ip, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}

	return ip
}

package handlers

import (
	"context"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimitHandler exposes the fixed-window rate limiter to other
// processes over HTTP.
type RateLimitHandler struct {
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewRateLimitHandler creates a new rate limit handler.
func NewRateLimitHandler(limiter *ratelimit.Limiter, logger *zap.Logger) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter, logger: logger}
}

// Check records one request against the key and reports the decision.
// It never fails: the limiter fails open on storage errors.
func (h *RateLimitHandler) Check(ctx context.Context, req *CheckRateLimitRequest) (*CheckRateLimitResponse, error) {
	window := time.Duration(req.Body.WindowSeconds) * time.Second
	result := h.limiter.Check(ctx, req.Body.Key, req.Body.Limit, window)

	resp := &CheckRateLimitResponse{}
	resp.Body.Allowed = result.Allowed
	resp.Body.Remaining = result.Remaining
	resp.Body.ResetAt = result.ResetAt

	return resp, nil
}

// Reset clears the current and previous windows for a key.
func (h *RateLimitHandler) Reset(ctx context.Context, req *ResetRateLimitRequest) (*struct{}, error) {
	window := time.Duration(req.Body.WindowSeconds) * time.Second

	if err := h.limiter.Reset(ctx, req.Body.Key, window); err != nil {
		// Best-effort cleanup; report success but leave a trace.
		h.logger.Warn("rate limit reset failed",
			zap.String("key", req.Body.Key),
			zap.Error(err))
	}

	return &struct{}{}, nil
}

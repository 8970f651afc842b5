package handlers

import (
	"context"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/breaker"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
)

// BreakerHandler exposes circuit breaker operations to other processes
// over HTTP. Integrations record the outcomes of their dependency
// calls here and ask whether the circuit is open before the next call.
type BreakerHandler struct {
	breaker *breaker.Breaker
	clock   state.Clock
}

// NewBreakerHandler creates a new breaker handler.
func NewBreakerHandler(b *breaker.Breaker, clock state.Clock) *BreakerHandler {
	if clock == nil {
		clock = state.SystemClock()
	}

	return &BreakerHandler{breaker: b, clock: clock}
}

// GetState returns the persisted record and derived status for a
// service. An absent record reads as closed with zero failures.
func (h *BreakerHandler) GetState(ctx context.Context, req *BreakerStateRequest) (*BreakerStateResponse, error) {
	st, err := h.breaker.GetState(ctx, req.Service)
	if err != nil {
		// Fail open: report closed rather than surfacing a storage fault.
		st = nil
	}

	resp := &BreakerStateResponse{}
	resp.Body.Service = req.Service
	resp.Body.Status = st.StatusAt(h.clock.Now()).String()

	if st != nil {
		resp.Body.Open = st.Open
		resp.Body.FailureCount = st.FailureCount
		resp.Body.LastFailureAt = st.LastFailureAt
		resp.Body.HalfOpenUntil = st.HalfOpenUntil
	}

	return resp, nil
}

// RecordFailure records a dependency failure.
func (h *BreakerHandler) RecordFailure(ctx context.Context, req *RecordFailureRequest) (*RecordFailureResponse, error) {
	result := h.breaker.RecordFailure(ctx, req.Service,
		req.Body.Threshold,
		time.Duration(req.Body.ResetTimeoutMs)*time.Millisecond)

	resp := &RecordFailureResponse{}
	resp.Body.Open = result.Open
	resp.Body.FailureCount = result.FailureCount

	return resp, nil
}

// RecordSuccess resets the circuit for a service to closed.
func (h *BreakerHandler) RecordSuccess(ctx context.Context, req *RecordSuccessRequest) (*struct{}, error) {
	h.breaker.RecordSuccess(ctx, req.Service)

	return &struct{}{}, nil
}

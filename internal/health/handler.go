package health

import (
	"context"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"github.com/danielgtaylor/huma/v2"
)

// StatusReporter reports which backing store is serving state requests.
type StatusReporter interface {
	Status() state.Status
}

// Handler handles health check operations.
type Handler struct {
	state StatusReporter
}

// NewHandler creates a new health handler.
func NewHandler(state StatusReporter) *Handler {
	return &Handler{state: state}
}

// Response is the response for the health check endpoint.
type Response struct {
	Body struct {
		Status string `json:"status"`
		State  struct {
			Available  bool   `json:"available"`
			Configured bool   `json:"configured"`
			Mode       string `json:"mode"`
			Instance   string `json:"instance"`
		} `json:"state"`
	}
}

// Check reports service health. A process that was never configured
// with a shared store is healthy in memory mode; "degraded" tells
// operators a configured shared store is unreachable and limits are
// per-process until it returns.
func (h *Handler) Check(_ context.Context, _ *struct{}) (*Response, error) {
	status := h.state.Status()

	resp := &Response{}
	resp.Body.Status = "ok"

	if status.Configured && !status.Available {
		resp.Body.Status = "degraded"
	}

	resp.Body.State.Available = status.Available
	resp.Body.State.Configured = status.Configured
	resp.Body.State.Mode = status.Mode
	resp.Body.State.Instance = status.Instance

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}

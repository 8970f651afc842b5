package handlers

import (
	"net/http"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/ratelimit"
	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the state service API with per-endpoint
// rate limit configuration.
func RegisterRoutes(api huma.API, rl *RateLimitHandler, br *BreakerHandler, kv *KVHandler) {
	// Rate limit checks are themselves on the hot path of every
	// protected request, so they get a generous limit.
	huma.Register(api, huma.Operation{
		OperationID: "check-rate-limit",
		Method:      http.MethodPost,
		Path:        "/v1/ratelimit/check",
		Summary:     "Check a rate limit",
		Description: "Records one request against the key's current fixed window and reports whether it is allowed.",
		Tags:        []string{"RateLimit"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 6000},
				},
			},
		},
	}, rl.Check)

	huma.Register(api, huma.Operation{
		OperationID: "reset-rate-limit",
		Method:      http.MethodPost,
		Path:        "/v1/ratelimit/reset",
		Summary:     "Reset a rate limit key",
		Description: "Deletes the current and previous windows for a key. Administrative use only.",
		Tags:        []string{"RateLimit"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 60},
				},
			},
		},
	}, rl.Reset)

	huma.Register(api, huma.Operation{
		OperationID: "get-breaker-state",
		Method:      http.MethodGet,
		Path:        "/v1/breakers/{service}",
		Summary:     "Get circuit breaker state",
		Tags:        []string{"CircuitBreaker"},
	}, br.GetState)

	huma.Register(api, huma.Operation{
		OperationID: "record-breaker-failure",
		Method:      http.MethodPost,
		Path:        "/v1/breakers/{service}/failures",
		Summary:     "Record a dependency failure",
		Tags:        []string{"CircuitBreaker"},
	}, br.RecordFailure)

	huma.Register(api, huma.Operation{
		OperationID:   "record-breaker-success",
		Method:        http.MethodPost,
		Path:          "/v1/breakers/{service}/successes",
		Summary:       "Record a dependency success",
		Tags:          []string{"CircuitBreaker"},
		DefaultStatus: http.StatusNoContent,
	}, br.RecordSuccess)

	huma.Register(api, huma.Operation{
		OperationID: "get-value",
		Method:      http.MethodGet,
		Path:        "/v1/kv/{key}",
		Summary:     "Read an ephemeral value",
		Tags:        []string{"KV"},
	}, kv.GetValue)

	huma.Register(api, huma.Operation{
		OperationID:   "set-value",
		Method:        http.MethodPut,
		Path:          "/v1/kv/{key}",
		Summary:       "Write an ephemeral value",
		Tags:          []string{"KV"},
		DefaultStatus: http.StatusNoContent,
	}, kv.SetValue)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-value",
		Method:        http.MethodDelete,
		Path:          "/v1/kv/{key}",
		Summary:       "Delete an ephemeral value",
		Tags:          []string{"KV"},
		DefaultStatus: http.StatusNoContent,
	}, kv.DeleteValue)
}

package handlers

import (
	"context"
	"time"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"github.com/danielgtaylor/huma/v2"
)

// KVHandler exposes the state facade's key/value operations over HTTP
// for collaborators that keep small ephemeral values (holds, dedupe
// markers) in the shared store.
type KVHandler struct {
	store state.Store
}

// NewKVHandler creates a new key/value handler.
func NewKVHandler(store state.Store) *KVHandler {
	return &KVHandler{store: store}
}

// GetValue reads a key and its remaining TTL.
func (h *KVHandler) GetValue(ctx context.Context, req *GetValueRequest) (*GetValueResponse, error) {
	value, found, err := h.store.Get(ctx, req.Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read key", err)
	}

	if !found {
		return nil, huma.Error404NotFound("key not found")
	}

	ttl, err := h.store.TTL(ctx, req.Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read key ttl", err)
	}

	resp := &GetValueResponse{}
	resp.Body.Key = req.Key
	resp.Body.Value = value

	switch ttl {
	case state.TTLNone, state.TTLMissing:
		resp.Body.TTLSeconds = -1
	default:
		// Round up so a key about to expire never reports 0 while present.
		resp.Body.TTLSeconds = int64((ttl + time.Second - 1) / time.Second)
	}

	return resp, nil
}

// SetValue writes a key with an optional TTL.
func (h *KVHandler) SetValue(ctx context.Context, req *SetValueRequest) (*struct{}, error) {
	ttl := time.Duration(req.Body.TTLSeconds) * time.Second

	if err := h.store.Set(ctx, req.Key, req.Body.Value, ttl); err != nil {
		return nil, huma.Error500InternalServerError("failed to write key", err)
	}

	return &struct{}{}, nil
}

// DeleteValue removes a key. Absence is not an error.
func (h *KVHandler) DeleteValue(ctx context.Context, req *DeleteValueRequest) (*struct{}, error) {
	if err := h.store.Del(ctx, req.Key); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete key", err)
	}

	return &struct{}{}, nil
}

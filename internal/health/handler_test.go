package health_test

import (
	"context"
	"testing"

	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/health"
	"github.com/WallaWallaTravel/walla-walla-travel-sub012/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReporter struct {
	status state.Status
}

func (s stubReporter) Status() state.Status { return s.status }

func TestHealthCheck(t *testing.T) {
	t.Run("reports ok while the shared store is reachable", func(t *testing.T) {
		handler := health.NewHandler(stubReporter{status: state.Status{
			Available:  true,
			Configured: true,
			Mode:       state.ModeShared,
			Instance:   "abc123",
		}})

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.True(t, resp.Body.State.Available)
		assert.Equal(t, state.ModeShared, resp.Body.State.Mode)
		assert.Equal(t, "abc123", resp.Body.State.Instance)
	})

	t.Run("reports degraded while falling back", func(t *testing.T) {
		handler := health.NewHandler(stubReporter{status: state.Status{
			Available:  false,
			Configured: true,
			Mode:       state.ModeMemory,
			Instance:   "abc123",
		}})

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.False(t, resp.Body.State.Available)
	})

	t.Run("unconfigured memory mode is healthy", func(t *testing.T) {
		handler := health.NewHandler(stubReporter{status: state.Status{
			Available:  false,
			Configured: false,
			Mode:       state.ModeMemory,
			Instance:   "abc123",
		}})

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, state.ModeMemory, resp.Body.State.Mode)
	})
}

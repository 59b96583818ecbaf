package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/sse"
)

// SSEManagerHandle wraps the event broadcaster with shutdown capability.
type SSEManagerHandle struct {
	*sse.Manager

	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the event broadcaster and starts its loop.
// ChartHub connectivity changes are forwarded to connected clients.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*slog.Logger](i)
	monitor := do.MustInvoke[*connectivity.Monitor](i)

	manager := sse.NewManager(log)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	monitor.Subscribe(func(state connectivity.State) {
		manager.Emit(sse.NewConnectivityChangedEvent(state))
	})

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}

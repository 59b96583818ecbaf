package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/charthub"
	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/metadata/cached"
	"github.com/chartstash/chartstash-server/internal/metadata/online"
)

// probeInterval is how often connectivity is re-checked while ChartHub is
// not known to be reachable. Regular lookup traffic keeps the state fresh
// once the service is online.
const probeInterval = time.Minute

// ProvideConnectivityMonitor provides the shared ChartHub reachability state.
func ProvideConnectivityMonitor(i do.Injector) (*connectivity.Monitor, error) {
	return connectivity.NewMonitor(), nil
}

// ChartHubClientHandle wraps the ChartHub client with shutdown capability.
// Client is nil when online lookups are disabled by configuration.
type ChartHubClientHandle struct {
	Client *charthub.Client

	cancelProbe context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *ChartHubClientHandle) Shutdown() error {
	if h.cancelProbe != nil {
		h.cancelProbe()
	}
	if h.Client != nil {
		h.Client.Close()
	}
	return nil
}

// ProvideChartHubClient provides the ChartHub API client. The monitor starts
// in the connecting state and only completed requests move it, so a probe
// goroutine issues a first request at startup and keeps retrying while the
// service is unreachable.
func ProvideChartHubClient(i do.Injector) (*ChartHubClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if cfg.ChartHub.BaseURL == "" {
		log.Info("charthub lookups disabled, no base URL configured")
		return &ChartHubClientHandle{}, nil
	}

	monitor := do.MustInvoke[*connectivity.Monitor](i)
	client := charthub.NewWithRate(
		cfg.ChartHub.BaseURL,
		cfg.ChartHub.RequestsPerSecond,
		cfg.ChartHub.Burst,
		monitor,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go probeLoop(ctx, client, monitor, log)

	log.Info("charthub client initialized",
		"base_url", cfg.ChartHub.BaseURL,
		"requests_per_second", cfg.ChartHub.RequestsPerSecond,
	)

	return &ChartHubClientHandle{Client: client, cancelProbe: cancel}, nil
}

func probeLoop(ctx context.Context, client *charthub.Client, monitor *connectivity.Monitor, log *slog.Logger) {
	client.Probe(ctx)
	log.Debug("charthub connectivity probe completed", "state", monitor.State())

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if monitor.State() == connectivity.Online {
				continue
			}
			client.Probe(ctx)
		}
	}
}

// ProvideSources provides the ordered metadata source chain: the local
// cache first, then ChartHub when configured.
func ProvideSources(i do.Injector) ([]metadata.Source, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clientHandle := do.MustInvoke[*ChartHubClientHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	sources := []metadata.Source{
		cached.NewSource(storeHandle.Store, log),
	}
	if clientHandle.Client != nil {
		sources = append(sources, online.NewSource(clientHandle.Client, log))
	}

	return sources, nil
}

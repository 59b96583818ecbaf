package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/api"
	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/mdns"
	"github.com/chartstash/chartstash-server/internal/media/images"
	"github.com/chartstash/chartstash-server/internal/scanner"
	"github.com/chartstash/chartstash-server/internal/service"
)

// HTTPServerHandle wraps the HTTP server with graceful shutdown capability.
type HTTPServerHandle struct {
	server *http.Server
	logger *slog.Logger
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.logger.Info("shutting down HTTP server")
	return h.server.Shutdown(ctx)
}

// ProvideHTTPServer builds the API server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	lookup := do.MustInvoke[*service.LookupService](i)
	covers := do.MustInvoke[*images.Storage](i)
	sc := do.MustInvoke[*scanner.Scanner](i)
	monitor := do.MustInvoke[*connectivity.Monitor](i)
	events := do.MustInvoke[*SSEManagerHandle](i)

	apiServer := api.NewServer(api.Dependencies{
		Catalog:     catalogHandle.Catalog,
		Lookup:      lookup,
		Index:       indexHandle.Index,
		Covers:      covers,
		Scanner:     sc,
		Monitor:     monitor,
		Events:      events.Manager,
		LibraryPath: cfg.Library.ChartsPath,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{server: srv, logger: log}, nil
}

// MDNSServiceHandle wraps the mDNS advertiser with shutdown capability.
type MDNSServiceHandle struct {
	service *mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started {
		h.service.Stop()
	}
	return nil
}

// ProvideMDNSService advertises the server on the local network. Failure to
// advertise is logged but never fatal; the server works without discovery.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	svc := mdns.NewService(log)
	handle := &MDNSServiceHandle{service: svc}

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertising disabled")
		return handle, nil
	}

	port, err := strconv.ParseUint(cfg.Server.Port, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid server port %q: %w", cfg.Server.Port, err)
	}

	if err := svc.Start(mdns.Advertisement{
		Name:    cfg.Server.Name,
		Version: api.Version,
		Port:    uint16(port),
	}); err != nil {
		log.Warn("mDNS advertising unavailable", "error", err)
		return handle, nil
	}

	handle.started = true
	return handle, nil
}

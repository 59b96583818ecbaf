// Package di provides dependency injection configuration for the ChartStash server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/di/providers"
	"github.com/chartstash/chartstash-server/internal/media/images"
	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/scanner"
	"github.com/chartstash/chartstash-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Persistence layer
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Cover storage
	do.Provide(injector, providers.ProvideCoverStorage)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Metadata layer
	do.Provide(injector, providers.ProvideConnectivityMonitor)
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideChartHubClient)
	do.Provide(injector, providers.ProvideSources)
	do.Provide(injector, providers.ProvideLookupService)

	// Scanner layer
	do.Provide(injector, providers.ProvideScanner)
	do.Provide(injector, providers.ProvideFileWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns once the server is
// running. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*slog.Logger](injector)

	_ = do.MustInvoke[*providers.CatalogHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*images.Processor](injector)

	_ = do.MustInvoke[*connectivity.Monitor](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.ChartHubClientHandle](injector)
	_ = do.MustInvoke[[]metadata.Source](injector)
	_ = do.MustInvoke[*service.LookupService](injector)

	_ = do.MustInvoke[*scanner.Scanner](injector)
	_ = do.MustInvoke[*providers.FileWatcherHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Recover the search index after a mapping bump or lost directory.
	providers.TriggerIndexRebuildIfNeeded(injector)

	// First run against a configured library fills the catalog from disk.
	providers.RunInitialScan(injector)

	return nil
}

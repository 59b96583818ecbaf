package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/service"
)

// ProvideLookupService provides the metadata lookup orchestrator.
func ProvideLookupService(i do.Injector) (*service.LookupService, error) {
	sources := do.MustInvoke[[]metadata.Source](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	clientHandle := do.MustInvoke[*ChartHubClientHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	// A typed nil interface would defeat the service's nil check.
	var setTags service.SetDescriber
	if clientHandle.Client != nil {
		setTags = clientHandle.Client
	}

	return service.NewLookupService(
		sources,
		storeHandle.Store,
		catalogHandle.Catalog,
		indexHandle.Index,
		setTags,
		log,
	), nil
}

package providers

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/store"
)

// CatalogHandle wraps the catalog with shutdown capability.
type CatalogHandle struct {
	*catalog.Catalog
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalog provides the SQLite library catalog.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	cat, err := catalog.Open(cfg.Data.CatalogPath(), log)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	log.Info("catalog opened", "path", cfg.Data.CatalogPath())

	return &CatalogHandle{Catalog: cat}, nil
}

// StoreHandle wraps the metadata cache with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger-backed metadata cache.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	st, err := store.Open(cfg.Data.CachePath(), log)
	if err != nil {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}

	return &StoreHandle{Store: st}, nil
}

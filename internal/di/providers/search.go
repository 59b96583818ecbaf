package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/search"
	"github.com/chartstash/chartstash-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if err := os.MkdirAll(cfg.Data.IndexPath(), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.IndexPath(),
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	docCount, _ := index.DocumentCount()
	log.Info("search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerIndexRebuildIfNeeded rebuilds the search index in the background
// when it is empty but the catalog already holds charts, which happens
// after a mapping bump or a deleted index directory.
func TriggerIndexRebuildIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	lookup := do.MustInvoke[*service.LookupService](i)
	log := do.MustInvoke[*slog.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	charts, err := catalogHandle.ListCharts(ctx)
	if err != nil || len(charts) == 0 {
		return
	}

	log.Info("search index is empty but catalog has charts, rebuilding",
		"chart_count", len(charts),
	)

	go func() {
		if err := lookup.RebuildIndex(context.Background()); err != nil {
			log.Error("search index rebuild failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("search index rebuild completed", "documents", count)
	}()
}

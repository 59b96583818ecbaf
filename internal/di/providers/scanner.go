package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/media/images"
	"github.com/chartstash/chartstash-server/internal/scanner"
)

// ProvideScanner provides the library scanner.
func ProvideScanner(i do.Injector) (*scanner.Scanner, error) {
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	covers := do.MustInvoke[*images.Storage](i)
	processor := do.MustInvoke[*images.Processor](i)
	log := do.MustInvoke[*slog.Logger](i)

	return scanner.NewScanner(catalogHandle.Catalog, covers, processor, log), nil
}

// FileWatcherHandle wraps the library watcher with shutdown capability.
// Watcher is nil when watching is disabled or no library is configured.
type FileWatcherHandle struct {
	Watcher *scanner.Watcher

	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	if h.Watcher != nil {
		return h.Watcher.Close()
	}
	return nil
}

// ProvideFileWatcher provides the filesystem watcher that triggers
// incremental rescans when chart-set directories change.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if !cfg.Library.Watch || cfg.Library.ChartsPath == "" {
		log.Info("library watching disabled")
		return &FileWatcherHandle{}, nil
	}

	sc := do.MustInvoke[*scanner.Scanner](i)

	w, err := scanner.NewWatcher(sc, cfg.Library.ChartsPath, log)
	if err != nil {
		return nil, fmt.Errorf("create library watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		cancel()
		w.Close()
		return nil, fmt.Errorf("start library watcher: %w", err)
	}

	log.Info("library watcher started", "path", cfg.Library.ChartsPath)

	return &FileWatcherHandle{Watcher: w, cancel: cancel}, nil
}

// RunInitialScan scans the library once at startup when the catalog is
// empty, so a fresh install indexes its library without an API call.
func RunInitialScan(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.Library.ChartsPath == "" {
		return
	}

	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	sets, err := catalogHandle.ListSets(context.Background())
	if err != nil || len(sets) > 0 {
		return
	}

	sc := do.MustInvoke[*scanner.Scanner](i)
	log.Info("catalog is empty, running initial library scan", "path", cfg.Library.ChartsPath)

	go func() {
		result, err := sc.Scan(context.Background(), cfg.Library.ChartsPath, scanner.ScanOptions{
			Workers: cfg.Library.ScanWorkers,
		})
		if err != nil {
			log.Error("initial library scan failed", "error", err)
			return
		}
		log.Info("initial library scan completed",
			"sets", result.SetsFound,
			"charts", result.ChartsFound,
		)
	}()
}

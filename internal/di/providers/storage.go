package providers

import (
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/media/images"
)

// ProvideCoverStorage provides on-disk storage for chart-set cover art.
func ProvideCoverStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)

	storage, err := images.NewStorage(cfg.Data.BasePath)
	if err != nil {
		return nil, fmt.Errorf("create cover storage: %w", err)
	}

	return storage, nil
}

// ProvideImageProcessor provides the cover processing pipeline.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*slog.Logger](i)

	return images.NewProcessor(storage, log), nil
}

// Package cached implements a metadata source over the local badger cache.
// It sits in front of the online source in the lookup chain.
package cached

import (
	"context"
	"log/slog"

	"github.com/chartstash/chartstash-server/internal/domain"
	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/store"
)

// Source serves lookups from previously cached online metadata.
type Source struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSource creates a cache-backed metadata source.
func NewSource(st *store.Store, logger *slog.Logger) *Source {
	return &Source{store: st, logger: logger}
}

// Available always reports true; the cache needs no connectivity.
func (s *Source) Available() bool {
	return true
}

// TryLookup serves a cached record if one is fresh. A cache can never speak
// authoritatively for ChartHub, so every miss is inconclusive: (false, nil).
func (s *Source) TryLookup(ctx context.Context, chart *domain.Chart) (bool, *metadata.OnlineMetadata) {
	if chart.Set == nil {
		panic("cached: chart has no owning set")
	}

	if chart.Checksum == "" {
		return false, nil
	}

	meta, err := s.store.GetCachedMetadata(ctx, chart.Checksum)
	if err != nil {
		s.logger.Warn("metadata cache lookup failed",
			"checksum", chart.Checksum,
			"error", err,
		)
		return false, nil
	}
	if meta == nil {
		return false, nil
	}

	s.logger.Debug("metadata cache hit",
		"filename", chart.Filename,
		"chart_id", meta.ChartID,
	)
	return true, meta
}

// Close implements metadata.Source. The underlying store belongs to the
// container and is closed there.
func (s *Source) Close() error {
	return nil
}

// Package service orchestrates metadata lookup across sources and keeps
// the catalog, cache, and search index consistent with what is learned.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/charthub"
	"github.com/chartstash/chartstash-server/internal/domain"
	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/search"
	"github.com/chartstash/chartstash-server/internal/store"
)

// Sentinel errors reported by lookup operations.
var (
	// ErrChartNotFound means the checksum is not in the local catalog.
	ErrChartNotFound = errors.New("service: chart not in catalog")

	// ErrUnmatched means ChartHub authoritatively has no record for the
	// chart; retrying will not help until the chart is re-uploaded there.
	ErrUnmatched = errors.New("service: chart unknown to charthub")

	// ErrUnavailable means no source could give a definitive answer;
	// the lookup should be retried later.
	ErrUnavailable = errors.New("service: metadata sources unavailable")
)

// SetDescriber fetches set-level presentation details. Satisfied by
// *charthub.Client; nil disables set enrichment.
type SetDescriber interface {
	GetSetTags(ctx context.Context, setID int64) (*charthub.SetTags, error)
}

// LookupService resolves chart metadata through an ordered source chain
// and persists what it learns.
type LookupService struct {
	sources []metadata.Source
	cache   *store.Store
	catalog *catalog.Catalog
	index   *search.Index
	setTags SetDescriber
	logger  *slog.Logger
}

// NewLookupService creates the service. Sources are consulted in order;
// typically the cached source first, then the online source.
func NewLookupService(
	sources []metadata.Source,
	cache *store.Store,
	cat *catalog.Catalog,
	index *search.Index,
	setTags SetDescriber,
	logger *slog.Logger,
) *LookupService {
	return &LookupService{
		sources: sources,
		cache:   cache,
		catalog: cat,
		index:   index,
		setTags: setTags,
		logger:  logger,
	}
}

// Lookup resolves metadata for the chart with the given checksum. Stored
// enrichment short-circuits; charts previously marked unmatched are not
// retried here (use Refresh for that).
func (s *LookupService) Lookup(ctx context.Context, checksum string) (*metadata.OnlineMetadata, error) {
	rec, set, err := s.loadChart(ctx, checksum)
	if err != nil {
		return nil, err
	}

	if rec.Online != nil {
		return rec.Online, nil
	}
	if rec.UnmatchedAt != nil {
		return nil, ErrUnmatched
	}

	return s.resolve(ctx, rec, set)
}

// Refresh drops any cached answer for the chart and consults the sources
// again. Used when the user knows the remote record changed.
func (s *LookupService) Refresh(ctx context.Context, checksum string) (*metadata.OnlineMetadata, error) {
	rec, set, err := s.loadChart(ctx, checksum)
	if err != nil {
		return nil, err
	}

	if err := s.cache.DeleteCachedMetadata(ctx, checksum); err != nil {
		s.logger.Warn("failed to drop cached metadata", "checksum", checksum, "error", err)
	}

	return s.resolve(ctx, rec, set)
}

// resolve walks the source chain with the tri-state contract: a hit wins,
// a definitive miss stops the chain, an inconclusive answer falls through
// to the next source.
func (s *LookupService) resolve(ctx context.Context, rec *catalog.ChartRecord, set *domain.ChartSet) (*metadata.OnlineMetadata, error) {
	chart := rec.Chart
	chart.Set = set

	for _, source := range s.sources {
		if !source.Available() {
			continue
		}

		conclusive, meta := source.TryLookup(ctx, &chart)
		if !conclusive {
			continue
		}
		if meta == nil {
			// Definitive miss: remember it so routine lookups stop
			// hammering the remote service.
			if err := s.catalog.MarkUnmatched(ctx, chart.ID); err != nil {
				s.logger.Warn("failed to mark chart unmatched", "chart_id", chart.ID, "error", err)
			}
			return nil, ErrUnmatched
		}

		s.persist(ctx, rec, set, meta)
		return meta, nil
	}

	return nil, ErrUnavailable
}

// persist stores a resolved record everywhere it is read from: the badger
// cache, the catalog, the set's presentation fields, and the search index.
// Persistence failures are logged, not returned; the caller still gets the
// metadata.
func (s *LookupService) persist(ctx context.Context, rec *catalog.ChartRecord, set *domain.ChartSet, meta *metadata.OnlineMetadata) {
	if err := s.cache.SetCachedMetadata(ctx, rec.Chart.Checksum, meta); err != nil {
		s.logger.Warn("failed to cache metadata", "checksum", rec.Chart.Checksum, "error", err)
	}

	if err := s.catalog.ApplyEnrichment(ctx, rec.Chart.ID, meta); err != nil {
		s.logger.Error("failed to store enrichment", "chart_id", rec.Chart.ID, "error", err)
	}

	s.enrichSet(ctx, set, meta)

	rec.Online = meta
	if err := s.index.IndexDocument(search.NewDocument(set, rec)); err != nil {
		s.logger.Warn("failed to index chart", "chart_id", rec.Chart.ID, "error", err)
	}
}

// enrichSet fills in the set's online ID, title, artist, and description
// the first time one of its charts resolves. Best effort.
func (s *LookupService) enrichSet(ctx context.Context, set *domain.ChartSet, meta *metadata.OnlineMetadata) {
	if s.setTags == nil || meta.SetID == 0 || set.OnlineSetID == meta.SetID {
		return
	}

	tags, err := s.setTags.GetSetTags(ctx, meta.SetID)
	if err != nil || tags == nil {
		if err != nil {
			s.logger.Debug("set enrichment fetch failed", "set_id", set.ID, "error", err)
		}
		// Record the online set ID even without presentation details.
		tags = &charthub.SetTags{}
	}

	if err := s.catalog.UpdateSetEnrichment(ctx, set.ID, meta.SetID, tags.Title, tags.Artist, tags.Description); err != nil {
		s.logger.Warn("failed to store set enrichment", "set_id", set.ID, "error", err)
		return
	}

	set.OnlineSetID = meta.SetID
	if tags.Title != "" {
		set.Title = tags.Title
	}
	if tags.Artist != "" {
		set.Artist = tags.Artist
	}
	if tags.Description != "" {
		set.Description = tags.Description
	}
}

// loadChart fetches the chart record and its owning set from the catalog.
func (s *LookupService) loadChart(ctx context.Context, checksum string) (*catalog.ChartRecord, *domain.ChartSet, error) {
	rec, err := s.catalog.GetChartByChecksum(ctx, checksum)
	if err != nil {
		return nil, nil, fmt.Errorf("load chart: %w", err)
	}
	if rec == nil {
		return nil, nil, ErrChartNotFound
	}

	set, err := s.catalog.GetSet(ctx, rec.SetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load set: %w", err)
	}
	if set == nil {
		return nil, nil, fmt.Errorf("load set %q: %w", rec.SetID, ErrChartNotFound)
	}
	return rec, set, nil
}

// RebuildIndex reindexes every cataloged chart. Called at startup so the
// search index survives being deleted or falling behind the catalog.
func (s *LookupService) RebuildIndex(ctx context.Context) error {
	sets, err := s.catalog.ListSets(ctx)
	if err != nil {
		return fmt.Errorf("list sets: %w", err)
	}
	setsByID := make(map[string]*domain.ChartSet, len(sets))
	for _, set := range sets {
		setsByID[set.ID] = set
	}

	records, err := s.catalog.ListCharts(ctx)
	if err != nil {
		return fmt.Errorf("list charts: %w", err)
	}

	docs := make([]*search.Document, 0, len(records))
	for _, rec := range records {
		set, ok := setsByID[rec.SetID]
		if !ok {
			continue
		}
		docs = append(docs, search.NewDocument(set, rec))
	}

	if err := s.index.Rebuild(); err != nil {
		return err
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("reindex charts: %w", err)
	}

	s.logger.Info("search index rebuilt", "charts", len(docs))
	return nil
}

// Package online implements the ChartHub-backed metadata source.
//
// Lookups are strictly sequential within a call: one primary request, then —
// only on a hit that carries top tags — one set-tags request. The source
// never parallelizes or retries; bounding load on ChartHub is the point.
package online

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/chartstash/chartstash-server/internal/charthub"
	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/domain"
	"github.com/chartstash/chartstash-server/internal/metadata"
)

// Transport is the slice of the ChartHub client this source consumes.
// *charthub.Client satisfies it; tests substitute a fake.
type Transport interface {
	State() connectivity.State
	GetChart(ctx context.Context, checksum, filename string) (*charthub.Chart, error)
	GetSetTags(ctx context.Context, setID int64) (*charthub.SetTags, error)
}

// Source resolves chart metadata against ChartHub.
type Source struct {
	transport Transport
	logger    *slog.Logger
}

// NewSource creates an online metadata source over the given transport.
func NewSource(transport Transport, logger *slog.Logger) *Source {
	return &Source{
		transport: transport,
		logger:    logger,
	}
}

// Available reports whether ChartHub is currently reachable. Live read of
// the connectivity state, never cached.
func (s *Source) Available() bool {
	return s.transport.State() == connectivity.Online
}

// TryLookup resolves the chart against ChartHub. See metadata.Source for the
// tri-state contract. Lookup failures are logged here and never propagated.
func (s *Source) TryLookup(ctx context.Context, chart *domain.Chart) (bool, *metadata.OnlineMetadata) {
	if chart.Set == nil {
		panic("online: chart has no owning set")
	}

	if !s.Available() {
		return false, nil
	}

	resp, err := s.transport.GetChart(ctx, chart.Checksum, chart.Filename)
	switch {
	case errors.Is(err, charthub.ErrNotFound):
		// The service has spoken: this chart was never submitted.
		s.logger.Debug("chart unknown to charthub",
			"filename", chart.Filename,
			"checksum", chart.Checksum,
		)
		return true, nil
	case err != nil:
		s.logger.Debug("online metadata lookup failed",
			"filename", chart.Filename,
			"error", err,
		)
		return false, nil
	case resp == nil:
		// Completed without a candidate (e.g. empty checksum). Treated the
		// same as a transport failure so callers may retry or fall back.
		return false, nil
	}

	meta := buildMetadata(resp)

	if err := s.populateTags(ctx, meta, resp); err != nil {
		// Best effort only; the primary hit stands regardless.
		s.logger.Debug("tag enrichment failed",
			"set_id", resp.SetID,
			"error", err,
		)
	}

	s.logger.Debug("online metadata lookup hit",
		"filename", chart.Filename,
		"chart_id", meta.ChartID,
		"set_id", meta.SetID,
	)
	return true, meta
}

// Close implements metadata.Source. The source holds no resources of its
// own; the transport belongs to the container.
func (s *Source) Close() error {
	return nil
}

// populateTags joins the primary response's top-tag votes with the set's tag
// catalog and appends the matched names to meta.UserTags, ordered by vote
// count descending and name ascending.
func (s *Source) populateTags(ctx context.Context, meta *metadata.OnlineMetadata, resp *charthub.Chart) error {
	if len(resp.TopTags) == 0 {
		return nil
	}

	setTags, err := s.transport.GetSetTags(ctx, resp.SetID)
	if err != nil {
		return err
	}
	if setTags == nil || setTags.RelatedTags == nil {
		return nil
	}

	// Catalog IDs are expected unique; last write wins if they are not.
	byID := make(map[int64]charthub.Tag, len(setTags.RelatedTags))
	for _, t := range setTags.RelatedTags {
		byID[t.ID] = t
	}

	type votedTag struct {
		name  string
		count int
	}
	matched := make([]votedTag, 0, len(resp.TopTags))
	for _, vote := range resp.TopTags {
		t, ok := byID[vote.TagID]
		if !ok {
			continue
		}
		matched = append(matched, votedTag{name: t.Name, count: vote.Count})
	}

	slices.SortFunc(matched, func(a, b votedTag) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	for _, t := range matched {
		meta.UserTags = append(meta.UserTags, t.name)
	}
	return nil
}

// buildMetadata maps the primary response onto a fresh OnlineMetadata.
// Pointer fields are copied so the record shares nothing with the response.
func buildMetadata(resp *charthub.Chart) *metadata.OnlineMetadata {
	meta := &metadata.OnlineMetadata{
		ChartID:     resp.ID,
		SetID:       resp.SetID,
		AuthorID:    resp.AuthorID,
		ChartStatus: copyStatus(resp.Status),
		Checksum:    resp.Checksum,
		LastUpdated: resp.LastUpdated,
	}
	if resp.Set != nil {
		meta.SetStatus = copyStatus(resp.Set.Status)
		meta.DateRanked = copyTime(resp.Set.DateRanked)
		meta.DateSubmitted = copyTime(resp.Set.DateSubmitted)
	}
	return meta
}

func copyStatus(s *domain.RankStatus) *domain.RankStatus {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

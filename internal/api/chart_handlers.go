package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/service"
	"github.com/chartstash/chartstash-server/internal/sse"
)

func (s *Server) registerChartRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getChart",
		Method:      http.MethodGet,
		Path:        "/api/v1/charts/{checksum}",
		Summary:     "Get chart",
		Description: "Returns the catalog record for a chart, including any stored online metadata",
		Tags:        []string{"Charts"},
	}, s.handleGetChart)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChartMetadata",
		Method:      http.MethodGet,
		Path:        "/api/v1/charts/{checksum}/metadata",
		Summary:     "Get chart metadata",
		Description: "Resolves online metadata for a chart, consulting the cache before ChartHub",
		Tags:        []string{"Charts"},
	}, s.handleGetChartMetadata)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshChartMetadata",
		Method:      http.MethodPost,
		Path:        "/api/v1/charts/{checksum}/metadata/refresh",
		Summary:     "Refresh chart metadata",
		Description: "Drops cached metadata and re-resolves from ChartHub, retrying charts previously marked unmatched",
		Tags:        []string{"Charts"},
	}, s.handleRefreshChartMetadata)
}

// === DTOs ===

// ChartInput identifies a chart by its file checksum.
type ChartInput struct {
	Checksum string `path:"checksum" pattern:"^[0-9a-f]{32}$" doc:"MD5 checksum of the chart file"`
}

// OnlineMetadataResponse contains ChartHub metadata in API responses.
type OnlineMetadataResponse struct {
	ChartID       int64      `json:"chart_id" doc:"ChartHub chart ID"`
	SetID         int64      `json:"set_id" doc:"ChartHub set ID"`
	AuthorID      int64      `json:"author_id" doc:"ChartHub author ID"`
	ChartStatus   string     `json:"chart_status,omitempty" doc:"Rank status of the chart"`
	SetStatus     string     `json:"set_status,omitempty" doc:"Rank status of the set"`
	DateRanked    *time.Time `json:"date_ranked,omitempty"`
	DateSubmitted *time.Time `json:"date_submitted,omitempty"`
	LastUpdated   time.Time  `json:"last_updated"`
	UserTags      []string   `json:"user_tags,omitempty" doc:"Community tags, most voted first"`
}

// ChartResponse contains a chart catalog record in API responses.
type ChartResponse struct {
	ID          string                  `json:"id"`
	SetID       string                  `json:"set_id"`
	Filename    string                  `json:"filename"`
	Checksum    string                  `json:"checksum,omitempty"`
	Size        int64                   `json:"size"`
	Online      *OnlineMetadataResponse `json:"online,omitempty" doc:"Stored online metadata, if resolved"`
	EnrichedAt  *time.Time              `json:"enriched_at,omitempty"`
	UnmatchedAt *time.Time              `json:"unmatched_at,omitempty" doc:"Set when ChartHub definitively does not know this chart"`
}

// ChartOutput wraps a chart record for Huma.
type ChartOutput struct {
	Body ChartResponse
}

// MetadataOutput wraps resolved metadata for Huma.
type MetadataOutput struct {
	Body OnlineMetadataResponse
}

func newOnlineMetadataResponse(meta *metadata.OnlineMetadata) OnlineMetadataResponse {
	resp := OnlineMetadataResponse{
		ChartID:       meta.ChartID,
		SetID:         meta.SetID,
		AuthorID:      meta.AuthorID,
		DateRanked:    meta.DateRanked,
		DateSubmitted: meta.DateSubmitted,
		LastUpdated:   meta.LastUpdated,
		UserTags:      meta.UserTags,
	}
	if meta.ChartStatus != nil {
		resp.ChartStatus = meta.ChartStatus.String()
	}
	if meta.SetStatus != nil {
		resp.SetStatus = meta.SetStatus.String()
	}
	return resp
}

func newChartResponse(rec *catalog.ChartRecord) ChartResponse {
	resp := ChartResponse{
		ID:          rec.Chart.ID,
		SetID:       rec.SetID,
		Filename:    rec.Chart.Filename,
		Checksum:    rec.Chart.Checksum,
		Size:        rec.Chart.Size,
		EnrichedAt:  rec.EnrichedAt,
		UnmatchedAt: rec.UnmatchedAt,
	}
	if rec.Online != nil {
		online := newOnlineMetadataResponse(rec.Online)
		resp.Online = &online
	}
	return resp
}

// === Handlers ===

func (s *Server) handleGetChart(ctx context.Context, input *ChartInput) (*ChartOutput, error) {
	rec, err := s.catalog.GetChartByChecksum(ctx, input.Checksum)
	if err != nil {
		s.logger.Error("failed to load chart", "error", err, "checksum", input.Checksum)
		return nil, huma.Error500InternalServerError("failed to load chart")
	}
	if rec == nil {
		return nil, huma.Error404NotFound("chart not in library", service.ErrChartNotFound)
	}

	return &ChartOutput{Body: newChartResponse(rec)}, nil
}

func (s *Server) handleGetChartMetadata(ctx context.Context, input *ChartInput) (*MetadataOutput, error) {
	meta, err := s.lookup.Lookup(ctx, input.Checksum)
	if err != nil {
		return nil, s.lookupError(err, input.Checksum)
	}

	s.emit(sse.NewChartEnrichedEvent(input.Checksum, meta.ChartID, meta.SetID))
	return &MetadataOutput{Body: newOnlineMetadataResponse(meta)}, nil
}

func (s *Server) handleRefreshChartMetadata(ctx context.Context, input *ChartInput) (*MetadataOutput, error) {
	meta, err := s.lookup.Refresh(ctx, input.Checksum)
	if err != nil {
		return nil, s.lookupError(err, input.Checksum)
	}

	s.emit(sse.NewChartEnrichedEvent(input.Checksum, meta.ChartID, meta.SetID))
	return &MetadataOutput{Body: newOnlineMetadataResponse(meta)}, nil
}

// lookupError maps lookup service errors to HTTP responses.
func (s *Server) lookupError(err error, checksum string) error {
	switch {
	case errors.Is(err, service.ErrChartNotFound):
		return huma.Error404NotFound("chart not in library", err)
	case errors.Is(err, service.ErrUnmatched):
		s.emit(sse.NewChartUnmatchedEvent(checksum))
		return huma.Error404NotFound("chart unknown to charthub", err)
	case errors.Is(err, service.ErrUnavailable):
		return huma.Error503ServiceUnavailable("metadata sources unavailable", err)
	default:
		s.logger.Error("metadata lookup failed", "error", err, "checksum", checksum)
		return huma.Error500InternalServerError("metadata lookup failed")
	}
}

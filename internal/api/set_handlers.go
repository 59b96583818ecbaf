package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chartstash/chartstash-server/internal/domain"
)

func (s *Server) registerSetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSets",
		Method:      http.MethodGet,
		Path:        "/api/v1/sets",
		Summary:     "List chart sets",
		Tags:        []string{"Sets"},
	}, s.handleListSets)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSet",
		Method:      http.MethodGet,
		Path:        "/api/v1/sets/{id}",
		Summary:     "Get chart set",
		Description: "Returns a set with all of its charts",
		Tags:        []string{"Sets"},
	}, s.handleGetSet)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSetCover",
		Method:      http.MethodGet,
		Path:        "/api/v1/sets/{id}/cover",
		Summary:     "Get set cover image",
		Tags:        []string{"Sets"},
	}, s.handleGetSetCover)
}

// === DTOs ===

// SetInput identifies a chart set.
type SetInput struct {
	ID string `path:"id" maxLength:"64" doc:"Set ID"`
}

// SetResponse contains a chart set in API responses.
type SetResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	Artist        string    `json:"artist,omitempty"`
	Description   string    `json:"description,omitempty" doc:"Markdown, from online enrichment"`
	CoverBlurHash string    `json:"cover_blurhash,omitempty" doc:"BlurHash placeholder for the cover image"`
	HasCover      bool      `json:"has_cover"`
	OnlineSetID   int64     `json:"online_set_id,omitempty" doc:"ChartHub set ID, if enriched"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// SetListOutput wraps the set list for Huma.
type SetListOutput struct {
	Body struct {
		Sets  []SetResponse `json:"sets"`
		Total int           `json:"total"`
	}
}

// SetDetailResponse contains a set and its charts.
type SetDetailResponse struct {
	SetResponse
	Charts []ChartResponse `json:"charts"`
}

// SetDetailOutput wraps the set detail for Huma.
type SetDetailOutput struct {
	Body SetDetailResponse
}

// CoverOutput streams the raw cover image.
type CoverOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func newSetResponse(set *domain.ChartSet) SetResponse {
	return SetResponse{
		ID:            set.ID,
		Title:         set.Title,
		Artist:        set.Artist,
		Description:   set.Description,
		CoverBlurHash: set.CoverBlurHash,
		HasCover:      set.CoverPath != "",
		OnlineSetID:   set.OnlineSetID,
		ScannedAt:     set.ScannedAt,
	}
}

// === Handlers ===

func (s *Server) handleListSets(ctx context.Context, _ *struct{}) (*SetListOutput, error) {
	sets, err := s.catalog.ListSets(ctx)
	if err != nil {
		s.logger.Error("failed to list sets", "error", err)
		return nil, huma.Error500InternalServerError("failed to list sets")
	}

	out := &SetListOutput{}
	out.Body.Sets = make([]SetResponse, 0, len(sets))
	for _, set := range sets {
		out.Body.Sets = append(out.Body.Sets, newSetResponse(set))
	}
	out.Body.Total = len(sets)
	return out, nil
}

func (s *Server) handleGetSet(ctx context.Context, input *SetInput) (*SetDetailOutput, error) {
	set, err := s.catalog.GetSet(ctx, input.ID)
	if err != nil {
		s.logger.Error("failed to load set", "error", err, "set_id", input.ID)
		return nil, huma.Error500InternalServerError("failed to load set")
	}
	if set == nil {
		return nil, huma.Error404NotFound("set not found")
	}

	records, err := s.catalog.ChartsBySet(ctx, input.ID)
	if err != nil {
		s.logger.Error("failed to load set charts", "error", err, "set_id", input.ID)
		return nil, huma.Error500InternalServerError("failed to load set charts")
	}

	detail := SetDetailResponse{
		SetResponse: newSetResponse(set),
		Charts:      make([]ChartResponse, 0, len(records)),
	}
	for _, rec := range records {
		detail.Charts = append(detail.Charts, newChartResponse(rec))
	}

	return &SetDetailOutput{Body: detail}, nil
}

func (s *Server) handleGetSetCover(ctx context.Context, input *SetInput) (*CoverOutput, error) {
	set, err := s.catalog.GetSet(ctx, input.ID)
	if err != nil {
		s.logger.Error("failed to load set", "error", err, "set_id", input.ID)
		return nil, huma.Error500InternalServerError("failed to load set")
	}
	if set == nil {
		return nil, huma.Error404NotFound("set not found")
	}

	data, err := s.covers.Get(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("set has no cover image")
	}

	return &CoverOutput{
		ContentType: http.DetectContentType(data),
		Body:        data,
	}, nil
}

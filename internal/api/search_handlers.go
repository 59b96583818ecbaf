package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chartstash/chartstash-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search charts",
		Description: "Full-text search over chart titles, artists, and filenames with tag and status filters",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the library.
type SearchInput struct {
	Query     string `query:"q" maxLength:"200" doc:"Search query. Omit to match everything."`
	Tags      string `query:"tags" maxLength:"200" doc:"Comma-separated tags to filter by (OR across values)"`
	Status    string `query:"status" enum:",graveyard,wip,pending,ranked,approved,qualified,loved" doc:"Rank status to filter by"`
	Limit     int    `query:"limit" minimum:"1" maximum:"100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Pagination offset"`
	Sort      string `query:"sort" enum:",relevance,title,artist,recent" doc:"Sort field (default relevance)"`
	Order     string `query:"order" enum:",asc,desc" doc:"Sort order"`
	Highlight bool   `query:"highlight" doc:"Include highlighted match fragments"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body search.Result
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultParams()
	params.Query = input.Query
	params.Status = input.Status
	params.Highlight = input.Highlight

	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Order != "" {
		params.SortOrder = input.Order
	}

	if input.Tags != "" {
		for tag := range strings.SplitSeq(input.Tags, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				params.Tags = append(params.Tags, tag)
			}
		}
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, huma.Error500InternalServerError("search failed")
	}

	return &SearchOutput{Body: *result}, nil
}

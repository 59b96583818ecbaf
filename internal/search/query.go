package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a chart search.
type Params struct {
	Query string // free-text query over title, artist, filename

	// Filters
	Tags   []string // exact tag match, OR across values
	Status string   // exact rank status name

	// Pagination
	Limit  int
	Offset int

	// Sorting: "relevance" (default), "title", "artist", "recent"
	SortBy    string
	SortOrder string // "asc" or "desc"

	Highlight bool
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:     20,
		SortBy:    "relevance",
		SortOrder: "desc",
		Highlight: true,
	}
}

// Result is a page of search hits.
type Result struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []Hit        `json:"hits"`
	Tags   []FacetCount `json:"tags,omitempty"`
}

// Hit is a single matching chart.
type Hit struct {
	ID         string            `json:"id"`
	SetID      string            `json:"set_id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Artist     string            `json:"artist,omitempty"`
	Filename   string            `json:"filename"`
	Checksum   string            `json:"checksum,omitempty"`
	Status     string            `json:"status,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount is one facet value and its document count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a query against the index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)
	req.AddFacet("tags", bleve.NewFacetRequest("tags", 20))

	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("artist")
	}

	req.Fields = []string{
		"id", "set_id", "title", "artist", "filename", "checksum", "status", "tags",
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score}

		if v, ok := hit.Fields["set_id"].(string); ok {
			h.SetID = v
		}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["artist"].(string); ok {
			h.Artist = v
		}
		if v, ok := hit.Fields["filename"].(string); ok {
			h.Filename = v
		}
		if v, ok := hit.Fields["checksum"].(string); ok {
			h.Checksum = v
		}
		if v, ok := hit.Fields["status"].(string); ok {
			h.Status = v
		}
		switch tags := hit.Fields["tags"].(type) {
		case string:
			h.Tags = []string{tags}
		case []any:
			for _, tag := range tags {
				if v, ok := tag.(string); ok {
					h.Tags = append(h.Tags, v)
				}
			}
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	if tagFacet, ok := res.Facets["tags"]; ok {
		for _, term := range tagFacet.Terms.Terms() {
			result.Tags = append(result.Tags, FacetCount{
				Value: term.Term,
				Count: term.Count,
			})
		}
	}

	return result, nil
}

// buildQuery constructs the Bleve query from params.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		artistMatch := bleve.NewMatchQuery(params.Query)
		artistMatch.SetField("artist")
		artistMatch.SetBoost(2.0)
		textQueries = append(textQueries, artistMatch)

		filenameMatch := bleve.NewMatchQuery(params.Query)
		filenameMatch.SetField("filename")
		textQueries = append(textQueries, filenameMatch)

		// Typo tolerance on the title.
		fuzzy := bleve.NewFuzzyQuery(params.Query)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		textQueries = append(textQueries, fuzzy)

		// Prefix query for autocomplete.
		if len(params.Query) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Tags) > 0 {
		tagQueries := make([]query.Query, len(params.Tags))
		for i, tag := range params.Tags {
			tq := bleve.NewTermQuery(tag)
			tq.SetField("tags")
			tagQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(tagQueries...))
	}

	if params.Status != "" {
		sq := bleve.NewTermQuery(params.Status)
		sq.SetField("status")
		queries = append(queries, sq)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures the sort order.
func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case "title":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "artist":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-artist", "-title"})
		} else {
			req.SortBy([]string{"artist", "title"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"scanned_at"})
		} else {
			req.SortBy([]string{"-scanned_at"})
		}
	default:
		req.SortBy([]string{"-_score"})
	}
}

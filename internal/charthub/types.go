// Package charthub provides a rate-limited client for the ChartHub community
// chart-sharing API.
package charthub

import (
	"time"

	"github.com/chartstash/chartstash-server/internal/domain"
)

// Chart is the canonical record ChartHub holds for a submitted chart.
type Chart struct {
	ID          int64
	SetID       int64
	AuthorID    int64
	Status      *domain.RankStatus
	Checksum    string
	LastUpdated time.Time

	// Set carries the owning set's moderation details when the response
	// included the set sub-object; nil otherwise.
	Set *SetInfo

	// TopTags are the set's top community tag votes; nil or empty when the
	// set has none.
	TopTags []TopTag
}

// SetInfo is the set sub-object of a chart lookup response.
type SetInfo struct {
	Status        *domain.RankStatus
	DateRanked    *time.Time
	DateSubmitted *time.Time
}

// TopTag is one community tag vote entry on a set.
type TopTag struct {
	TagID int64
	Count int
}

// Tag is one entry of a set's tag catalog.
type Tag struct {
	ID   int64
	Name string
}

// SetTags is the set detail response used for tag enrichment.
type SetTags struct {
	Title       string
	Artist      string
	Description string // Markdown, converted from the wire HTML
	CoverURL    string

	// RelatedTags is the authoritative tag catalog for the set; nil when the
	// response carried none.
	RelatedTags []Tag
}

// Raw API response types (internal)

type rawChart struct {
	ID          int64       `json:"id"`
	SetID       int64       `json:"set_id"`
	AuthorID    int64       `json:"author_id"`
	Status      *int        `json:"status"`
	Checksum    string      `json:"checksum"`
	LastUpdated time.Time   `json:"last_updated"`
	Set         *rawSet     `json:"set"`
	TopTags     []rawTopTag `json:"top_tags"`
}

type rawSet struct {
	Status        *int       `json:"status"`
	DateRanked    *time.Time `json:"date_ranked"`
	DateSubmitted *time.Time `json:"date_submitted"`
}

type rawTopTag struct {
	TagID int64 `json:"tag_id"`
	Count int   `json:"count"`
}

type rawSetTags struct {
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Description string   `json:"description"`
	CoverURL    string   `json:"cover_url"`
	RelatedTags []rawTag `json:"related_tags"`
}

type rawTag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func rankStatus(v *int) *domain.RankStatus {
	if v == nil {
		return nil
	}
	s := domain.RankStatus(*v)
	return &s
}

func (r *rawChart) toChart() *Chart {
	c := &Chart{
		ID:          r.ID,
		SetID:       r.SetID,
		AuthorID:    r.AuthorID,
		Status:      rankStatus(r.Status),
		Checksum:    r.Checksum,
		LastUpdated: r.LastUpdated,
	}
	if r.Set != nil {
		c.Set = &SetInfo{
			Status:        rankStatus(r.Set.Status),
			DateRanked:    r.Set.DateRanked,
			DateSubmitted: r.Set.DateSubmitted,
		}
	}
	for _, t := range r.TopTags {
		c.TopTags = append(c.TopTags, TopTag{TagID: t.TagID, Count: t.Count})
	}
	return c
}

func (r *rawSetTags) toSetTags() *SetTags {
	s := &SetTags{
		Title:       r.Title,
		Artist:      r.Artist,
		Description: htmlToMarkdown(r.Description),
		CoverURL:    r.CoverURL,
	}
	for _, t := range r.RelatedTags {
		s.RelatedTags = append(s.RelatedTags, Tag{ID: t.ID, Name: t.Name})
	}
	return s
}

// Package search provides full-text chart search using Bleve, with tag
// and rank-status filtering on top of title/artist text matching.
package search

import (
	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/domain"
)

// Document is the indexed representation of one chart. Set-level fields
// (title, artist, tags) are denormalized onto every chart so a single query
// answers both "find this song" and "find charts tagged dubstep".
type Document struct {
	ID       string   `json:"id"`     // chart ID
	SetID    string   `json:"set_id"` // owning set
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Filename string   `json:"filename"`
	Checksum string   `json:"checksum"`
	Tags     []string `json:"tags,omitempty"`
	Status   string   `json:"status,omitempty"` // rank status name, e.g. "ranked"

	ScannedAt int64 `json:"scanned_at"` // unix seconds, for recency sorting
}

// NewDocument builds the index document for a chart and its owning set.
func NewDocument(set *domain.ChartSet, rec *catalog.ChartRecord) *Document {
	doc := &Document{
		ID:        rec.Chart.ID,
		SetID:     set.ID,
		Title:     set.Title,
		Artist:    set.Artist,
		Filename:  rec.Chart.Filename,
		Checksum:  rec.Chart.Checksum,
		ScannedAt: set.ScannedAt.Unix(),
	}
	if rec.Online != nil {
		doc.Tags = rec.Online.UserTags
		if rec.Online.ChartStatus != nil {
			doc.Status = rec.Online.ChartStatus.String()
		}
	}
	return doc
}

// ToMap converts the document to a map with lowercase field names. Bleve
// indexes Go field names by default, and the mapping uses lowercase.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"set_id":     d.SetID,
		"title":      d.Title,
		"artist":     d.Artist,
		"filename":   d.Filename,
		"checksum":   d.Checksum,
		"scanned_at": d.ScannedAt,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.Status != "" {
		m["status"] = d.Status
	}
	return m
}

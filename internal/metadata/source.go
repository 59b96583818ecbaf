// Package metadata defines the contract for resolving online metadata for
// locally scanned charts.
package metadata

import (
	"context"
	"time"

	"github.com/chartstash/chartstash-server/internal/domain"
)

// OnlineMetadata is the canonical ChartHub record for a chart. It is built
// once per successful lookup and owned by the caller after return.
type OnlineMetadata struct {
	ChartID  int64 `json:"chart_id"`
	SetID    int64 `json:"set_id"`
	AuthorID int64 `json:"author_id"`

	ChartStatus *domain.RankStatus `json:"chart_status,omitempty"`
	SetStatus   *domain.RankStatus `json:"set_status,omitempty"`

	DateRanked    *time.Time `json:"date_ranked,omitempty"`
	DateSubmitted *time.Time `json:"date_submitted,omitempty"`

	Checksum    string    `json:"checksum"`
	LastUpdated time.Time `json:"last_updated"`

	// UserTags holds community tag names ordered by vote count descending,
	// ties broken by name. Populated at most once, during the lookup that
	// built this record.
	UserTags []string `json:"user_tags,omitempty"`
}

// Source resolves online metadata for a chart.
//
// TryLookup returns a tri-state result that callers use to decide whether to
// keep consulting other sources:
//
//	found=false, meta=nil  — inconclusive: the source was unavailable or the
//	                         lookup failed; retry later or fall back.
//	found=true,  meta=nil  — definitive miss: the source authoritatively has
//	                         no record for this chart; do not retry it.
//	found=true,  meta!=nil — hit.
//
// found=false with meta!=nil is never returned.
type Source interface {
	// Available reports whether the source can currently serve lookups.
	Available() bool

	// TryLookup resolves metadata for the chart. chart.Set must be non-nil;
	// a nil Set is a caller bug and panics.
	TryLookup(ctx context.Context, chart *domain.Chart) (bool, *OnlineMetadata)

	// Close releases any resources held by the source. It never fails for
	// sources that hold none.
	Close() error
}

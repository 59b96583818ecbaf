package catalog

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/chartstash/chartstash-server/internal/domain"
	"github.com/chartstash/chartstash-server/internal/metadata"
)

// ChartRecord is a chart row together with its enrichment state.
type ChartRecord struct {
	Chart domain.Chart
	SetID string

	// Online is the resolved ChartHub record; nil while unresolved.
	Online *metadata.OnlineMetadata

	EnrichedAt  *time.Time
	UnmatchedAt *time.Time
}

// chartColumns is the ordered list of columns selected in charts queries.
const chartColumns = `id, set_id, filename, checksum, size, mod_time,
	online_chart_id, online_set_id, author_id, chart_status, set_status,
	date_ranked, date_submitted, last_updated, user_tags, enriched_at, unmatched_at`

// scanChart scans a sql.Row (or sql.Rows via its Scan method) into a ChartRecord.
func scanChart(scanner interface{ Scan(dest ...any) error }) (*ChartRecord, error) {
	var rec ChartRecord

	var (
		onlineChartID sql.NullInt64
		onlineSetID   sql.NullInt64
		authorID      sql.NullInt64
		chartStatus   sql.NullInt64
		setStatus     sql.NullInt64
		dateRanked    sql.NullString
		dateSubmitted sql.NullString
		lastUpdated   sql.NullString
		userTags      sql.NullString
		enrichedAt    sql.NullString
		unmatchedAt   sql.NullString
	)

	err := scanner.Scan(
		&rec.Chart.ID,
		&rec.SetID,
		&rec.Chart.Filename,
		&rec.Chart.Checksum,
		&rec.Chart.Size,
		&rec.Chart.ModTime,
		&onlineChartID,
		&onlineSetID,
		&authorID,
		&chartStatus,
		&setStatus,
		&dateRanked,
		&dateSubmitted,
		&lastUpdated,
		&userTags,
		&enrichedAt,
		&unmatchedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.EnrichedAt, err = parseNullableTime(enrichedAt); err != nil {
		return nil, fmt.Errorf("parse enriched_at: %w", err)
	}
	if rec.UnmatchedAt, err = parseNullableTime(unmatchedAt); err != nil {
		return nil, fmt.Errorf("parse unmatched_at: %w", err)
	}

	if onlineChartID.Valid {
		meta := &metadata.OnlineMetadata{
			ChartID:  onlineChartID.Int64,
			SetID:    onlineSetID.Int64,
			AuthorID: authorID.Int64,
			Checksum: rec.Chart.Checksum,
		}
		if chartStatus.Valid {
			s := domain.RankStatus(chartStatus.Int64)
			meta.ChartStatus = &s
		}
		if setStatus.Valid {
			s := domain.RankStatus(setStatus.Int64)
			meta.SetStatus = &s
		}
		if meta.DateRanked, err = parseNullableTime(dateRanked); err != nil {
			return nil, fmt.Errorf("parse date_ranked: %w", err)
		}
		if meta.DateSubmitted, err = parseNullableTime(dateSubmitted); err != nil {
			return nil, fmt.Errorf("parse date_submitted: %w", err)
		}
		if lastUpdated.Valid && lastUpdated.String != "" {
			if meta.LastUpdated, err = parseTime(lastUpdated.String); err != nil {
				return nil, fmt.Errorf("parse last_updated: %w", err)
			}
		}
		if userTags.Valid && userTags.String != "" {
			if err := json.Unmarshal([]byte(userTags.String), &meta.UserTags); err != nil {
				return nil, fmt.Errorf("parse user_tags: %w", err)
			}
		}
		rec.Online = meta
	}

	return &rec, nil
}

// UpsertChart inserts or updates a chart keyed by (set, filename). A changed
// checksum invalidates any stored enrichment: the file is a different chart
// now. The stored ID wins on update and is written back to the argument.
func (c *Catalog) UpsertChart(ctx context.Context, setID string, chart *domain.Chart) error {
	const query = `
		INSERT INTO charts (id, set_id, filename, checksum, size, mod_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(set_id, filename) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			online_chart_id = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE online_chart_id END,
			online_set_id   = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE online_set_id END,
			author_id       = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE author_id END,
			chart_status    = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE chart_status END,
			set_status      = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE set_status END,
			date_ranked     = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE date_ranked END,
			date_submitted  = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE date_submitted END,
			last_updated    = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE last_updated END,
			user_tags       = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE user_tags END,
			enriched_at     = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE enriched_at END,
			unmatched_at    = CASE WHEN charts.checksum != excluded.checksum THEN NULL ELSE unmatched_at END,
			checksum = excluded.checksum
		RETURNING id`

	var id string
	err := c.db.QueryRowContext(ctx, query,
		chart.ID,
		setID,
		chart.Filename,
		chart.Checksum,
		chart.Size,
		chart.ModTime,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert chart %q: %w", chart.Filename, err)
	}

	chart.ID = id
	return nil
}

// GetChartByChecksum returns the chart with the given checksum, or nil.
func (c *Catalog) GetChartByChecksum(ctx context.Context, checksum string) (*ChartRecord, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+chartColumns+` FROM charts WHERE checksum = ? LIMIT 1`, checksum)

	rec, err := scanChart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chart by checksum: %w", err)
	}
	return rec, nil
}

// ChartsBySet returns all charts of a set ordered by filename.
func (c *Catalog) ChartsBySet(ctx context.Context, setID string) ([]*ChartRecord, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+chartColumns+` FROM charts WHERE set_id = ? ORDER BY filename`, setID)
	if err != nil {
		return nil, fmt.Errorf("charts by set: %w", err)
	}
	defer rows.Close()

	return collectCharts(rows)
}

// ListCharts returns every chart in the catalog. Used to rebuild the search
// index at startup.
func (c *Catalog) ListCharts(ctx context.Context) ([]*ChartRecord, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+chartColumns+` FROM charts ORDER BY set_id, filename`)
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	defer rows.Close()

	return collectCharts(rows)
}

func collectCharts(rows *sql.Rows) ([]*ChartRecord, error) {
	var records []*ChartRecord
	for rows.Next() {
		rec, err := scanChart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chart: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ApplyEnrichment stores a resolved online record on the chart and clears
// any previous unmatched marker.
func (c *Catalog) ApplyEnrichment(ctx context.Context, chartID string, meta *metadata.OnlineMetadata) error {
	tags, err := json.Marshal(meta.UserTags)
	if err != nil {
		return fmt.Errorf("marshal user tags: %w", err)
	}

	const query = `
		UPDATE charts
		SET online_chart_id = ?, online_set_id = ?, author_id = ?,
		    chart_status = ?, set_status = ?,
		    date_ranked = ?, date_submitted = ?, last_updated = ?,
		    user_tags = ?, enriched_at = ?, unmatched_at = NULL
		WHERE id = ?`

	_, err = c.db.ExecContext(ctx, query,
		meta.ChartID,
		meta.SetID,
		meta.AuthorID,
		nullStatus(meta.ChartStatus),
		nullStatus(meta.SetStatus),
		nullTimeString(meta.DateRanked),
		nullTimeString(meta.DateSubmitted),
		formatTime(meta.LastUpdated),
		string(tags),
		formatTime(time.Now()),
		chartID,
	)
	if err != nil {
		return fmt.Errorf("apply enrichment %q: %w", chartID, err)
	}
	return nil
}

// MarkUnmatched records that ChartHub authoritatively has no record for the
// chart, so routine enrichment stops retrying it.
func (c *Catalog) MarkUnmatched(ctx context.Context, chartID string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE charts SET unmatched_at = ? WHERE id = ?`,
		formatTime(time.Now()), chartID,
	)
	if err != nil {
		return fmt.Errorf("mark unmatched %q: %w", chartID, err)
	}
	return nil
}

func nullStatus(s *domain.RankStatus) sql.NullInt64 {
	if s == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*s), Valid: true}
}

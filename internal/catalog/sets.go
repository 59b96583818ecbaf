package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chartstash/chartstash-server/internal/domain"
)

// setColumns is the ordered list of columns selected in chart_sets queries.
const setColumns = `id, path, title, artist, description, cover_path, cover_blurhash, online_set_id, scanned_at`

// scanSet scans a sql.Row (or sql.Rows via its Scan method) into a domain.ChartSet.
func scanSet(scanner interface{ Scan(dest ...any) error }) (*domain.ChartSet, error) {
	var set domain.ChartSet
	var scannedAt string

	err := scanner.Scan(
		&set.ID,
		&set.Path,
		&set.Title,
		&set.Artist,
		&set.Description,
		&set.CoverPath,
		&set.CoverBlurHash,
		&set.OnlineSetID,
		&scannedAt,
	)
	if err != nil {
		return nil, err
	}

	set.ScannedAt, err = parseTime(scannedAt)
	if err != nil {
		return nil, fmt.Errorf("parse scanned_at: %w", err)
	}
	return &set, nil
}

// UpsertSet inserts or updates a set keyed by its library path. The caller's
// set keeps its ID on insert; on update the stored ID wins and is written
// back to the argument.
func (c *Catalog) UpsertSet(ctx context.Context, set *domain.ChartSet) error {
	const query = `
		INSERT INTO chart_sets (id, path, title, artist, description, cover_path, cover_blurhash, online_set_id, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			cover_path = excluded.cover_path,
			cover_blurhash = excluded.cover_blurhash,
			scanned_at = excluded.scanned_at
		RETURNING id`

	var id string
	err := c.db.QueryRowContext(ctx, query,
		set.ID,
		set.Path,
		set.Title,
		set.Artist,
		set.Description,
		set.CoverPath,
		set.CoverBlurHash,
		set.OnlineSetID,
		formatTime(set.ScannedAt),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert set %q: %w", set.Path, err)
	}

	set.ID = id
	return nil
}

// GetSet returns the set with the given ID, or nil when absent.
func (c *Catalog) GetSet(ctx context.Context, id string) (*domain.ChartSet, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+setColumns+` FROM chart_sets WHERE id = ?`, id)

	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get set %q: %w", id, err)
	}
	return set, nil
}

// ListSets returns all sets ordered by artist and title.
func (c *Catalog) ListSets(ctx context.Context) ([]*domain.ChartSet, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+setColumns+` FROM chart_sets ORDER BY artist, title, path`)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []*domain.ChartSet
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

// UpdateSetEnrichment stores the presentation details learned from the
// online set record.
func (c *Catalog) UpdateSetEnrichment(ctx context.Context, id string, onlineSetID int64, title, artist, description string) error {
	const query = `
		UPDATE chart_sets
		SET online_set_id = ?,
		    title = CASE WHEN ? != '' THEN ? ELSE title END,
		    artist = CASE WHEN ? != '' THEN ? ELSE artist END,
		    description = CASE WHEN ? != '' THEN ? ELSE description END
		WHERE id = ?`

	_, err := c.db.ExecContext(ctx, query,
		onlineSetID,
		title, title,
		artist, artist,
		description, description,
		id,
	)
	if err != nil {
		return fmt.Errorf("update set enrichment %q: %w", id, err)
	}
	return nil
}

// DeleteSet removes a set and (via cascade) its charts. Used when a library
// directory disappears between scans.
func (c *Catalog) DeleteSet(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM chart_sets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete set %q: %w", id, err)
	}
	return nil
}

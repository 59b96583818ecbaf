package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/chartstash/chartstash-server/internal/domain"
	"github.com/chartstash/chartstash-server/internal/metadata"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("close catalog: %v", err)
		}
	})
	return c
}

func testSet(id, path string) *domain.ChartSet {
	return &domain.ChartSet{
		ID:        id,
		Path:      path,
		Title:     "Night Drive",
		Artist:    "Volt Runner",
		ScannedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestCatalog_SetRoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	set := testSet("set-abc123", "/library/night-drive")
	if err := c.UpsertSet(ctx, set); err != nil {
		t.Fatalf("upsert set: %v", err)
	}

	got, err := c.GetSet(ctx, set.ID)
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if got == nil {
		t.Fatal("expected set, got nil")
	}
	if !reflect.DeepEqual(got, set) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, set)
	}
}

func TestCatalog_GetSetMissing(t *testing.T) {
	c := openTestCatalog(t)

	got, err := c.GetSet(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing set, got %+v", got)
	}
}

func TestCatalog_UpsertSetKeepsIDOnRescan(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	set := testSet("set-first", "/library/night-drive")
	if err := c.UpsertSet(ctx, set); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// A rescan generates a fresh candidate ID for the same path; the
	// stored one must win so references stay stable.
	rescan := testSet("set-second", "/library/night-drive")
	rescan.Title = "Night Drive (Deluxe)"
	if err := c.UpsertSet(ctx, rescan); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if rescan.ID != "set-first" {
		t.Errorf("expected stored ID written back, got %q", rescan.ID)
	}

	got, err := c.GetSet(ctx, "set-first")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if got.Title != "Night Drive (Deluxe)" {
		t.Errorf("expected updated title, got %q", got.Title)
	}

	sets, err := c.ListSets(ctx)
	if err != nil {
		t.Fatalf("list sets: %v", err)
	}
	if len(sets) != 1 {
		t.Errorf("expected 1 set after rescan, got %d", len(sets))
	}
}

func TestCatalog_ChartRoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	set := testSet("set-abc123", "/library/night-drive")
	if err := c.UpsertSet(ctx, set); err != nil {
		t.Fatalf("upsert set: %v", err)
	}

	chart := &domain.Chart{
		ID:       "chart-xyz789",
		Filename: "expert.chart",
		Checksum: "3c9179af47f5e6e1b91b7057bbdbbe99",
		Size:     48213,
		ModTime:  1767225600,
	}
	if err := c.UpsertChart(ctx, set.ID, chart); err != nil {
		t.Fatalf("upsert chart: %v", err)
	}

	rec, err := c.GetChartByChecksum(ctx, chart.Checksum)
	if err != nil {
		t.Fatalf("get chart: %v", err)
	}
	if rec == nil {
		t.Fatal("expected chart record, got nil")
	}
	if rec.SetID != set.ID {
		t.Errorf("set ID = %q, want %q", rec.SetID, set.ID)
	}
	if !reflect.DeepEqual(rec.Chart, *chart) {
		t.Errorf("chart mismatch:\n got %+v\nwant %+v", rec.Chart, *chart)
	}
	if rec.Online != nil || rec.EnrichedAt != nil || rec.UnmatchedAt != nil {
		t.Error("fresh chart should carry no enrichment state")
	}
}

func TestCatalog_ApplyEnrichment(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	set := testSet("set-abc123", "/library/night-drive")
	if err := c.UpsertSet(ctx, set); err != nil {
		t.Fatalf("upsert set: %v", err)
	}
	chart := &domain.Chart{
		ID:       "chart-xyz789",
		Filename: "expert.chart",
		Checksum: "3c9179af47f5e6e1b91b7057bbdbbe99",
	}
	if err := c.UpsertChart(ctx, set.ID, chart); err != nil {
		t.Fatalf("upsert chart: %v", err)
	}

	ranked := domain.StatusRanked
	dateRanked := time.Date(2025, 10, 2, 11, 0, 0, 0, time.UTC)
	meta := &metadata.OnlineMetadata{
		ChartID:     75421,
		SetID:       18093,
		AuthorID:    5012,
		ChartStatus: &ranked,
		SetStatus:   &ranked,
		DateRanked:  &dateRanked,
		Checksum:    chart.Checksum,
		LastUpdated: time.Date(2025, 11, 4, 18, 22, 31, 0, time.UTC),
		UserTags:    []string{"electronic", "piano"},
	}
	if err := c.ApplyEnrichment(ctx, chart.ID, meta); err != nil {
		t.Fatalf("apply enrichment: %v", err)
	}

	rec, err := c.GetChartByChecksum(ctx, chart.Checksum)
	if err != nil {
		t.Fatalf("get chart: %v", err)
	}
	if rec.Online == nil {
		t.Fatal("expected online metadata after enrichment")
	}
	if !reflect.DeepEqual(rec.Online, meta) {
		t.Errorf("online metadata mismatch:\n got %+v\nwant %+v", rec.Online, meta)
	}
	if rec.EnrichedAt == nil {
		t.Error("expected enriched_at to be set")
	}
	if rec.UnmatchedAt != nil {
		t.Error("enrichment should clear the unmatched marker")
	}
}

func TestCatalog_MarkUnmatched(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	set := testSet("set-abc123", "/library/night-drive")
	if err := c.UpsertSet(ctx, set); err != nil {
		t.Fatalf("upsert set: %v", err)
	}
	chart := &domain.Chart{ID: "chart-1", Filename: "hard.chart", Checksum: "aa11"}
	if err := c.UpsertChart(ctx, set.ID, chart); err != nil {
		t.Fatalf("upsert chart: %v", err)
	}

	if err := c.MarkUnmatched(ctx, chart.ID); err != nil {
		t.Fatalf("mark unmatched: %v", err)
	}

	rec, err := c.GetChartByChecksum(ctx, "aa11")
	if err != nil {
		t.Fatalf("get chart: %v", err)
	}
	if rec.UnmatchedAt == nil {
		t.Error("expected unmatched_at to be set")
	}
	if rec.Online != nil {
		t.Error("unmatched chart should carry no online metadata")
	}
}

func TestCatalog_RescanWithNewChecksumClearsEnrichment(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	set := testSet("set-abc123", "/library/night-drive")
	if err := c.UpsertSet(ctx, set); err != nil {
		t.Fatalf("upsert set: %v", err)
	}
	chart := &domain.Chart{ID: "chart-1", Filename: "expert.chart", Checksum: "aa11", Size: 100}
	if err := c.UpsertChart(ctx, set.ID, chart); err != nil {
		t.Fatalf("upsert chart: %v", err)
	}
	if err := c.ApplyEnrichment(ctx, chart.ID, &metadata.OnlineMetadata{
		ChartID: 1, SetID: 2, AuthorID: 3,
		Checksum: "aa11", LastUpdated: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("apply enrichment: %v", err)
	}

	// Same filename, new content. The old enrichment no longer describes
	// this file and must not survive the rescan.
	edited := &domain.Chart{ID: "chart-2", Filename: "expert.chart", Checksum: "bb22", Size: 120}
	if err := c.UpsertChart(ctx, set.ID, edited); err != nil {
		t.Fatalf("upsert edited chart: %v", err)
	}
	if edited.ID != "chart-1" {
		t.Errorf("expected stored chart ID written back, got %q", edited.ID)
	}

	rec, err := c.GetChartByChecksum(ctx, "bb22")
	if err != nil {
		t.Fatalf("get chart: %v", err)
	}
	if rec == nil {
		t.Fatal("expected rescanned chart record")
	}
	if rec.Online != nil || rec.EnrichedAt != nil {
		t.Error("changed checksum should invalidate stored enrichment")
	}
}

func TestCatalog_ChartsBySetAndList(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	setA := testSet("set-a", "/library/a")
	setB := testSet("set-b", "/library/b")
	for _, s := range []*domain.ChartSet{setA, setB} {
		if err := c.UpsertSet(ctx, s); err != nil {
			t.Fatalf("upsert set: %v", err)
		}
	}

	charts := []struct {
		setID    string
		id, name string
	}{
		{"set-a", "chart-2", "hard.chart"},
		{"set-a", "chart-1", "expert.chart"},
		{"set-b", "chart-3", "easy.chart"},
	}
	for i, ch := range charts {
		chart := &domain.Chart{ID: ch.id, Filename: ch.name, Checksum: string(rune('a'+i)) + "sum"}
		if err := c.UpsertChart(ctx, ch.setID, chart); err != nil {
			t.Fatalf("upsert chart %s: %v", ch.name, err)
		}
	}

	bySet, err := c.ChartsBySet(ctx, "set-a")
	if err != nil {
		t.Fatalf("charts by set: %v", err)
	}
	if len(bySet) != 2 {
		t.Fatalf("expected 2 charts in set-a, got %d", len(bySet))
	}
	if bySet[0].Chart.Filename != "expert.chart" || bySet[1].Chart.Filename != "hard.chart" {
		t.Errorf("expected filename ordering, got %q then %q",
			bySet[0].Chart.Filename, bySet[1].Chart.Filename)
	}

	all, err := c.ListCharts(ctx)
	if err != nil {
		t.Fatalf("list charts: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 charts total, got %d", len(all))
	}
}

func TestCatalog_DeleteSetCascades(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	set := testSet("set-abc123", "/library/night-drive")
	if err := c.UpsertSet(ctx, set); err != nil {
		t.Fatalf("upsert set: %v", err)
	}
	chart := &domain.Chart{ID: "chart-1", Filename: "expert.chart", Checksum: "aa11"}
	if err := c.UpsertChart(ctx, set.ID, chart); err != nil {
		t.Fatalf("upsert chart: %v", err)
	}

	if err := c.DeleteSet(ctx, set.ID); err != nil {
		t.Fatalf("delete set: %v", err)
	}

	rec, err := c.GetChartByChecksum(ctx, "aa11")
	if err != nil {
		t.Fatalf("get chart: %v", err)
	}
	if rec != nil {
		t.Error("deleting a set should remove its charts")
	}
}

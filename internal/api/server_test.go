package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/domain"
	"github.com/chartstash/chartstash-server/internal/media/images"
	"github.com/chartstash/chartstash-server/internal/metadata"
	"github.com/chartstash/chartstash-server/internal/search"
	"github.com/chartstash/chartstash-server/internal/service"
	"github.com/chartstash/chartstash-server/internal/store"
)

const testChecksum = "3c9179af47f5e6e1b91b7057bbdbbe99"

// scriptedSource is a metadata.Source with a fixed answer.
type scriptedSource struct {
	conclusive bool
	meta       *metadata.OnlineMetadata
}

func (s *scriptedSource) Available() bool { return true }

func (s *scriptedSource) TryLookup(context.Context, *domain.Chart) (bool, *metadata.OnlineMetadata) {
	return s.conclusive, s.meta
}

func (s *scriptedSource) Close() error { return nil }

type testServer struct {
	*Server
	api     humatest.TestAPI
	catalog *catalog.Catalog
	index   *search.Index
	setID   string
}

// setupTestServer builds a server on real temp-dir storage with a scripted
// metadata source. Pass nil to run without any source.
func setupTestServer(t *testing.T, source metadata.Source) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	cache, err := store.Open(filepath.Join(t.TempDir(), "cache"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	index, err := search.NewIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	covers, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)

	set := &domain.ChartSet{
		ID:        "set-api1",
		Path:      "/library/night-drive",
		Title:     "Night Drive",
		Artist:    "Volt Runner",
		ScannedAt: time.Now().UTC(),
	}
	require.NoError(t, cat.UpsertSet(ctx, set))
	chart := &domain.Chart{
		ID:       "chart-api1",
		Filename: "expert.chart",
		Checksum: testChecksum,
		Size:     2048,
	}
	require.NoError(t, cat.UpsertChart(ctx, set.ID, chart))

	var sources []metadata.Source
	if source != nil {
		sources = append(sources, source)
	}
	lookup := service.NewLookupService(sources, cache, cat, index, nil, logger)

	monitor := connectivity.NewMonitor()
	monitor.SetState(connectivity.Online)

	s := NewServer(Dependencies{
		Catalog: cat,
		Lookup:  lookup,
		Index:   index,
		Covers:  covers,
		Monitor: monitor,
		Logger:  logger,
	})

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.api),
		catalog: cat,
		index:   index,
		setID:   set.ID,
	}
}

func testMeta() *metadata.OnlineMetadata {
	ranked := domain.StatusRanked
	return &metadata.OnlineMetadata{
		ChartID:     75421,
		SetID:       18093,
		AuthorID:    5012,
		ChartStatus: &ranked,
		Checksum:    testChecksum,
		LastUpdated: time.Date(2025, 11, 4, 18, 22, 31, 0, time.UTC),
		UserTags:    []string{"electronic"},
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/health")

	assert.Equal(t, http.StatusOK, resp.Code)

	var healthResp HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &healthResp))

	// Empty search index reports degraded, never unhealthy.
	assert.Equal(t, "degraded", healthResp.Status)
	assert.Equal(t, "healthy", healthResp.Components["catalog"].Status)
	assert.Equal(t, "degraded", healthResp.Components["search"].Status)
	assert.Equal(t, "healthy", healthResp.Components["charthub"].Status)
}

func TestGetChart(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/charts/" + testChecksum)
	assert.Equal(t, http.StatusOK, resp.Code)

	var chart ChartResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &chart))
	assert.Equal(t, "expert.chart", chart.Filename)
	assert.Equal(t, ts.setID, chart.SetID)
	assert.Nil(t, chart.Online)
}

func TestGetChart_UnknownChecksum(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/charts/ffffffffffffffffffffffffffffffff")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetChart_MalformedChecksum(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/charts/not-a-checksum")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestGetChartMetadata_Hit(t *testing.T) {
	ts := setupTestServer(t, &scriptedSource{conclusive: true, meta: testMeta()})

	resp := ts.api.Get("/api/v1/charts/" + testChecksum + "/metadata")
	assert.Equal(t, http.StatusOK, resp.Code)

	var meta OnlineMetadataResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &meta))
	assert.Equal(t, int64(75421), meta.ChartID)
	assert.Equal(t, "ranked", meta.ChartStatus)
	assert.Equal(t, []string{"electronic"}, meta.UserTags)
}

func TestGetChartMetadata_Unmatched(t *testing.T) {
	ts := setupTestServer(t, &scriptedSource{conclusive: true, meta: nil})

	resp := ts.api.Get("/api/v1/charts/" + testChecksum + "/metadata")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "unmatched", apiErr.Code)
}

func TestGetChartMetadata_Unavailable(t *testing.T) {
	ts := setupTestServer(t, &scriptedSource{conclusive: false})

	resp := ts.api.Get("/api/v1/charts/" + testChecksum + "/metadata")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "unavailable", apiErr.Code)
}

func TestRefreshChartMetadata(t *testing.T) {
	ts := setupTestServer(t, &scriptedSource{conclusive: true, meta: testMeta()})

	resp := ts.api.Post("/api/v1/charts/" + testChecksum + "/metadata/refresh")
	assert.Equal(t, http.StatusOK, resp.Code)

	var meta OnlineMetadataResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &meta))
	assert.Equal(t, int64(75421), meta.ChartID)
}

func TestListSets(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/sets")
	assert.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Sets  []SetResponse `json:"sets"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "Night Drive", body.Sets[0].Title)
	assert.False(t, body.Sets[0].HasCover)
}

func TestGetSet(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/sets/" + ts.setID)
	assert.Equal(t, http.StatusOK, resp.Code)

	var detail SetDetailResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &detail))
	assert.Equal(t, "Volt Runner", detail.Artist)
	require.Len(t, detail.Charts, 1)
	assert.Equal(t, "expert.chart", detail.Charts[0].Filename)
}

func TestGetSet_NotFound(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/sets/set-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetSetCover_Missing(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/sets/" + ts.setID + "/cover")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t, nil)

	doc := &search.Document{
		ID:       "chart-api1",
		SetID:    ts.setID,
		Title:    "Night Drive",
		Artist:   "Volt Runner",
		Filename: "expert.chart",
		Checksum: testChecksum,
		Tags:     []string{"electronic"},
	}
	require.NoError(t, ts.index.IndexDocument(doc))

	resp := ts.api.Get("/api/v1/search?q=night")
	assert.Equal(t, http.StatusOK, resp.Code)

	var result search.Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "Night Drive", result.Hits[0].Title)
}

func TestSearch_TagFilter(t *testing.T) {
	ts := setupTestServer(t, nil)

	doc := &search.Document{
		ID:       "chart-api1",
		SetID:    ts.setID,
		Title:    "Night Drive",
		Filename: "expert.chart",
		Tags:     []string{"electronic"},
	}
	require.NoError(t, ts.index.IndexDocument(doc))

	resp := ts.api.Get("/api/v1/search?tags=piano")
	assert.Equal(t, http.StatusOK, resp.Code)

	var result search.Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, uint64(0), result.Total)
}

func TestTriggerScan_NoLibraryConfigured(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/library/scan")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestGetScanStatus_Idle(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/v1/library/scan")
	assert.Equal(t, http.StatusOK, resp.Code)

	var status ScanStatusResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &status))
	assert.False(t, status.Running)
}

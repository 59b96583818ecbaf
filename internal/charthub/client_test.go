package charthub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/domain"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *connectivity.Monitor, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	monitor := connectivity.NewMonitor()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	client := New(server.URL, monitor, logger)
	client.http = server.Client()

	return client, monitor, server
}

func TestClient_GetChart(t *testing.T) {
	fixture := loadFixture(t, "chart_response.json")

	tests := []struct {
		name       string
		response   []byte
		statusCode int
		wantNil    bool
		wantErr    error
	}{
		{
			name:       "successful lookup",
			response:   fixture,
			statusCode: http.StatusOK,
		},
		{
			name:       "completed with no candidate",
			response:   []byte(`null`),
			statusCode: http.StatusOK,
			wantNil:    true,
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			wantErr:    ErrNotFound,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			wantErr:    ErrRateLimited,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			wantErr:    ErrServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.response != nil {
					w.Write(tt.response)
				}
			}

			client, _, _ := newTestClient(t, handler)

			chart, err := client.GetChart(context.Background(), "3c9179af47f5e6e1b91b7057bbdbbe99", "volt runner - night drive [expert].chart")

			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", tt.wantErr)
				}
				var hubErr *Error
				if !errors.As(err, &hubErr) {
					t.Fatalf("expected *Error, got %T", err)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected wrapped error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if chart != nil {
					t.Errorf("expected nil chart, got %+v", chart)
				}
				return
			}
			if chart == nil {
				t.Fatal("expected chart, got nil")
			}
		})
	}
}

func TestClient_GetChart_FieldMapping(t *testing.T) {
	fixture := loadFixture(t, "chart_response.json")

	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(fixture)
	})

	chart, err := client.GetChart(context.Background(), "3c9179af47f5e6e1b91b7057bbdbbe99", "chart.chart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chart.ID != 75421 {
		t.Errorf("ID = %d, want 75421", chart.ID)
	}
	if chart.SetID != 18093 {
		t.Errorf("SetID = %d, want 18093", chart.SetID)
	}
	if chart.AuthorID != 5012 {
		t.Errorf("AuthorID = %d, want 5012", chart.AuthorID)
	}
	if chart.Status == nil || *chart.Status != domain.StatusRanked {
		t.Errorf("Status = %v, want ranked", chart.Status)
	}
	if chart.Set == nil {
		t.Fatal("expected set sub-object")
	}
	if chart.Set.Status == nil || *chart.Set.Status != domain.StatusRanked {
		t.Errorf("Set.Status = %v, want ranked", chart.Set.Status)
	}
	if chart.Set.DateRanked == nil || chart.Set.DateSubmitted == nil {
		t.Error("expected ranked and submitted dates")
	}
	if len(chart.TopTags) != 3 {
		t.Fatalf("got %d top tags, want 3", len(chart.TopTags))
	}
	if chart.TopTags[0].TagID != 3 || chart.TopTags[0].Count != 15 {
		t.Errorf("first top tag = %+v, want {3 15}", chart.TopTags[0])
	}
}

func TestClient_GetChart_AbsentSetMapsToNil(t *testing.T) {
	fixture := loadFixture(t, "chart_response_minimal.json")

	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(fixture)
	})

	chart, err := client.GetChart(context.Background(), "9e107d9d372bb6826bd81d3542a419d6", "chart.chart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chart.Set != nil {
		t.Errorf("Set = %+v, want nil", chart.Set)
	}
	if chart.Status != nil {
		t.Errorf("Status = %v, want nil", chart.Status)
	}
	if chart.TopTags != nil {
		t.Errorf("TopTags = %v, want nil", chart.TopTags)
	}
}

func TestClient_GetSetTags(t *testing.T) {
	fixture := loadFixture(t, "set_tags_response.json")

	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sets/18093" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(fixture)
	})

	tags, err := client.GetSetTags(context.Background(), 18093)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tags.Title != "Night Drive" || tags.Artist != "Volt Runner" {
		t.Errorf("title/artist = %q/%q", tags.Title, tags.Artist)
	}
	if len(tags.RelatedTags) != 3 {
		t.Fatalf("got %d related tags, want 3", len(tags.RelatedTags))
	}
	if tags.RelatedTags[0].Name != "electronic" {
		t.Errorf("first tag = %q, want electronic", tags.RelatedTags[0].Name)
	}
	// HTML description converted to Markdown
	if tags.Description != "A **synthwave** chart set." {
		t.Errorf("description = %q", tags.Description)
	}
}

func TestClient_ConnectivityTransitions(t *testing.T) {
	client, monitor, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if monitor.State() != connectivity.Connecting {
		t.Fatalf("initial state = %v, want connecting", monitor.State())
	}

	// A 404 is still a reachable server.
	_, err := client.GetChart(context.Background(), "abc", "x.chart")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if monitor.State() != connectivity.Online {
		t.Errorf("state after rejection = %v, want online", monitor.State())
	}

	// A dead server flips the monitor offline.
	server.Close()
	_, err = client.GetChart(context.Background(), "abc", "x.chart")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if monitor.State() != connectivity.Offline {
		t.Errorf("state after transport failure = %v, want offline", monitor.State())
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with key",
			err:  &Error{Op: "lookup", Key: "3c9179af", Err: ErrNotFound},
			want: "charthub lookup [3c9179af]: charthub: not found",
		},
		{
			name: "without key",
			err:  &Error{Op: "setTags", Err: ErrServer},
			want: "charthub setTags: charthub: server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: "lookup", Key: "abc", Err: ErrNotFound}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to work through Unwrap")
	}
}

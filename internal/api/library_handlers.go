package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chartstash/chartstash-server/internal/scanner"
	"github.com/chartstash/chartstash-server/internal/sse"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "triggerScan",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/scan",
		Summary:     "Trigger library scan",
		Description: "Starts a full library scan in the background. Only one scan runs at a time.",
		Tags:        []string{"Library"},
	}, s.handleTriggerScan)

	huma.Register(s.api, huma.Operation{
		OperationID: "getScanStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/scan",
		Summary:     "Get scan status",
		Tags:        []string{"Library"},
	}, s.handleGetScanStatus)
}

// === DTOs ===

// ScanStatusResponse describes the running or most recent scan.
type ScanStatusResponse struct {
	Running     bool       `json:"running"`
	Phase       string     `json:"phase,omitempty" doc:"walking, hashing, applying, or complete"`
	Current     int        `json:"current,omitempty"`
	Total       int        `json:"total,omitempty"`
	CurrentItem string     `json:"current_item,omitempty"`
	ErrorCount  int        `json:"error_count,omitempty"`
	RunID       string     `json:"run_id,omitempty" doc:"ID of the last completed run"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	SetsFound   int        `json:"sets_found,omitempty"`
	ChartsFound int        `json:"charts_found,omitempty"`
	Removed     int        `json:"removed,omitempty"`
}

// ScanStatusOutput wraps the scan status for Huma.
type ScanStatusOutput struct {
	Body ScanStatusResponse
}

// TriggerScanOutput reports that a scan was started.
type TriggerScanOutput struct {
	Status int
	Body   struct {
		Started bool `json:"started"`
	}
}

// === Handlers ===

func (s *Server) handleTriggerScan(_ context.Context, _ *struct{}) (*TriggerScanOutput, error) {
	if s.scanner == nil || s.libraryPath == "" {
		return nil, huma.Error503ServiceUnavailable("no chart library configured")
	}

	s.scanMu.Lock()
	if s.scanRunning {
		s.scanMu.Unlock()
		return nil, huma.Error409Conflict("a scan is already running")
	}
	s.scanRunning = true
	s.lastProgress = nil
	s.scanMu.Unlock()

	// Detached from the request context; the scan outlives the request.
	go s.runScan(context.Background())

	out := &TriggerScanOutput{Status: http.StatusAccepted}
	out.Body.Started = true
	return out, nil
}

func (s *Server) runScan(ctx context.Context) {
	defer func() {
		s.scanMu.Lock()
		s.scanRunning = false
		s.scanMu.Unlock()
	}()

	s.emit(sse.NewScanStartedEvent(s.libraryPath))

	// Progress events are throttled; a big library produces thousands of
	// snapshots per second during hashing.
	var lastEmit time.Time

	result, err := s.scanner.Scan(ctx, s.libraryPath, scanner.ScanOptions{
		OnProgress: func(p *scanner.Progress) {
			s.scanMu.Lock()
			s.lastProgress = p
			s.scanMu.Unlock()

			if time.Since(lastEmit) >= 500*time.Millisecond {
				lastEmit = time.Now()
				s.emit(sse.NewScanProgressEvent(p))
			}
		},
	})
	if err != nil {
		s.logger.Error("library scan failed", "error", err)
		return
	}

	s.scanMu.Lock()
	s.lastResult = result
	s.scanMu.Unlock()

	s.emit(sse.NewScanCompleteEvent(result))
}

// emit broadcasts an event when SSE is wired up.
func (s *Server) emit(event sse.Event) {
	if s.events != nil {
		s.events.Emit(event)
	}
}

func (s *Server) handleGetScanStatus(_ context.Context, _ *struct{}) (*ScanStatusOutput, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	resp := ScanStatusResponse{Running: s.scanRunning}

	if s.lastProgress != nil {
		resp.Phase = string(s.lastProgress.Phase)
		resp.Current = s.lastProgress.Current
		resp.Total = s.lastProgress.Total
		resp.CurrentItem = s.lastProgress.CurrentItem
		resp.ErrorCount = len(s.lastProgress.Errors)
	}

	if s.lastResult != nil {
		resp.RunID = s.lastResult.RunID
		resp.StartedAt = &s.lastResult.StartedAt
		resp.CompletedAt = &s.lastResult.CompletedAt
		resp.SetsFound = s.lastResult.SetsFound
		resp.ChartsFound = s.lastResult.ChartsFound
		resp.Removed = s.lastResult.Removed
	}

	return &ScanStatusOutput{Body: resp}, nil
}

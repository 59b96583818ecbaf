// Package sse implements Server-Sent Events for streaming scan progress
// and metadata updates to connected clients.
package sse

import (
	"time"

	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/scanner"
)

// EventType identifies the kind of event being streamed.
type EventType string

// Event types streamed to clients.
const (
	EventScanStarted         EventType = "scan.started"
	EventScanProgress        EventType = "scan.progress"
	EventScanComplete        EventType = "scan.complete"
	EventChartEnriched       EventType = "chart.enriched"
	EventChartUnmatched      EventType = "chart.unmatched"
	EventConnectivityChanged EventType = "connectivity.changed"
	EventHeartbeat           EventType = "heartbeat"
)

// Event is a single server-sent event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ScanProgressData is the payload for scan progress events.
type ScanProgressData struct {
	Phase       string `json:"phase"`
	Current     int    `json:"current"`
	Total       int    `json:"total"`
	CurrentItem string `json:"current_item,omitempty"`
	ErrorCount  int    `json:"error_count"`
}

// ScanCompleteData is the payload for scan completion events.
type ScanCompleteData struct {
	RunID       string `json:"run_id"`
	SetsFound   int    `json:"sets_found"`
	ChartsFound int    `json:"charts_found"`
	Added       int    `json:"added"`
	Removed     int    `json:"removed"`
	Errors      int    `json:"errors"`
}

// ChartEventData is the payload for chart metadata events.
type ChartEventData struct {
	Checksum string `json:"checksum"`
	ChartID  int64  `json:"chart_id,omitempty"`
	SetID    int64  `json:"set_id,omitempty"`
}

// NewScanStartedEvent creates a scan started event.
func NewScanStartedEvent(libraryPath string) Event {
	return Event{
		Type:      EventScanStarted,
		Timestamp: time.Now(),
		Data:      map[string]string{"library_path": libraryPath},
	}
}

// NewScanProgressEvent creates a scan progress event from a scanner snapshot.
func NewScanProgressEvent(p *scanner.Progress) Event {
	return Event{
		Type:      EventScanProgress,
		Timestamp: time.Now(),
		Data: ScanProgressData{
			Phase:       string(p.Phase),
			Current:     p.Current,
			Total:       p.Total,
			CurrentItem: p.CurrentItem,
			ErrorCount:  len(p.Errors),
		},
	}
}

// NewScanCompleteEvent creates a scan completion event.
func NewScanCompleteEvent(result *scanner.ScanResult) Event {
	return Event{
		Type:      EventScanComplete,
		Timestamp: time.Now(),
		Data: ScanCompleteData{
			RunID:       result.RunID,
			SetsFound:   result.SetsFound,
			ChartsFound: result.ChartsFound,
			Added:       result.Added,
			Removed:     result.Removed,
			Errors:      result.Errors,
		},
	}
}

// NewChartEnrichedEvent creates an event for a chart that gained metadata.
func NewChartEnrichedEvent(checksum string, chartID, setID int64) Event {
	return Event{
		Type:      EventChartEnriched,
		Timestamp: time.Now(),
		Data:      ChartEventData{Checksum: checksum, ChartID: chartID, SetID: setID},
	}
}

// NewChartUnmatchedEvent creates an event for a chart ChartHub has no record of.
func NewChartUnmatchedEvent(checksum string) Event {
	return Event{
		Type:      EventChartUnmatched,
		Timestamp: time.Now(),
		Data:      ChartEventData{Checksum: checksum},
	}
}

// NewConnectivityChangedEvent creates an event for a ChartHub state change.
func NewConnectivityChangedEvent(state connectivity.State) Event {
	return Event{
		Type:      EventConnectivityChanged,
		Timestamp: time.Now(),
		Data:      map[string]string{"state": state.String()},
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
	}
}

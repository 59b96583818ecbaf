package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chartstash/chartstash-server/internal/connectivity"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	catalogHealth := s.checkCatalog(ctx)
	components["catalog"] = catalogHealth
	if catalogHealth.Status == "unhealthy" {
		overall = "unhealthy"
	} else if catalogHealth.Status == "degraded" && overall == "healthy" {
		overall = "degraded"
	}

	searchHealth := s.checkSearchIndex()
	components["search"] = searchHealth
	if searchHealth.Status == "unhealthy" {
		overall = "unhealthy"
	} else if searchHealth.Status == "degraded" && overall == "healthy" {
		overall = "degraded"
	}

	// ChartHub being offline never makes the server unhealthy; lookups
	// degrade to the cache.
	hubHealth := s.checkChartHub()
	components["charthub"] = hubHealth
	if hubHealth.Status == "degraded" && overall == "healthy" {
		overall = "degraded"
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkCatalog verifies the SQLite catalog is accessible.
func (s *Server) checkCatalog(ctx context.Context) ComponentHealth {
	// Handle nil catalog (e.g., in tests)
	if s.catalog == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "catalog not configured",
		}
	}

	start := time.Now()
	err := s.catalog.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "catalog unreachable",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.index == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "search index not configured",
		}
	}

	start := time.Now()
	docCount, err := s.index.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}

	// Accessible but empty, likely mid-rebuild or a fresh install.
	if docCount == 0 {
		return ComponentHealth{
			Status:  "degraded",
			Latency: latency.String(),
			Message: "search index empty",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkChartHub reports the current ChartHub connectivity state.
func (s *Server) checkChartHub() ComponentHealth {
	if s.monitor == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "online lookups disabled",
		}
	}

	state := s.monitor.State()
	switch state {
	case connectivity.Online:
		return ComponentHealth{Status: "healthy"}
	case connectivity.Connecting:
		return ComponentHealth{
			Status:  "degraded",
			Message: "no request completed yet",
		}
	default:
		return ComponentHealth{
			Status:  "degraded",
			Message: "charthub unreachable, serving cached metadata",
		}
	}
}

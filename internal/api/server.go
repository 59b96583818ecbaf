// Package api provides the HTTP API server and handlers for ChartStash.
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chartstash/chartstash-server/internal/catalog"
	"github.com/chartstash/chartstash-server/internal/connectivity"
	"github.com/chartstash/chartstash-server/internal/media/images"
	"github.com/chartstash/chartstash-server/internal/scanner"
	"github.com/chartstash/chartstash-server/internal/search"
	"github.com/chartstash/chartstash-server/internal/service"
	"github.com/chartstash/chartstash-server/internal/sse"
)

// Version is the API version reported in the OpenAPI document.
const Version = "1.0.0"

// Dependencies groups everything the API server needs. Optional fields may
// be nil; affected endpoints then report the feature as unavailable.
type Dependencies struct {
	Catalog     *catalog.Catalog
	Lookup      *service.LookupService
	Index       *search.Index
	Covers      *images.Storage
	Scanner     *scanner.Scanner
	Monitor     *connectivity.Monitor
	Events      *sse.Manager
	LibraryPath string
	Logger      *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	catalog     *catalog.Catalog
	lookup      *service.LookupService
	index       *search.Index
	covers      *images.Storage
	scanner     *scanner.Scanner
	monitor     *connectivity.Monitor
	events      *sse.Manager
	libraryPath string

	router *chi.Mux
	api    huma.API
	logger *slog.Logger

	// Scan state; one scan at a time.
	scanMu       sync.Mutex
	scanRunning  bool
	lastProgress *scanner.Progress
	lastResult   *scanner.ScanResult
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps Dependencies) *Server {
	s := &Server{
		catalog:     deps.Catalog,
		lookup:      deps.Lookup,
		index:       deps.Index,
		covers:      deps.Covers,
		scanner:     deps.Scanner,
		monitor:     deps.Monitor,
		events:      deps.Events,
		libraryPath: deps.LibraryPath,
		router:      chi.NewRouter(),
		logger:      deps.Logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("ChartStash API", Version)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerChartRoutes()
	s.registerSetRoutes()
	s.registerSearchRoutes()
	s.registerLibraryRoutes()

	// SSE does not fit the OpenAPI request/response model; the stream
	// handler mounts on the router directly.
	if s.events != nil {
		s.router.Get("/api/v1/events", sse.NewHandler(s.events, s.logger).ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

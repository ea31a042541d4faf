package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/trail-map-service/internal/domain"
	"github.com/couchcryptid/trail-map-service/internal/mapview"
)

// MapService is the read side of the pipeline plus on-demand reloads.
type MapService interface {
	sharedobs.ReadinessChecker
	View() *mapview.View
	LastError() error
	Load(ctx context.Context) (*mapview.View, error)
}

// Server exposes the map API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        MapService
	logger     *slog.Logger
}

// NewServer creates an HTTP server. corsOrigins lists the origins allowed to
// call the API from a browser; "*" allows any.
func NewServer(addr string, svc MapService, corsOrigins []string, logger *slog.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(svc))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/map", s.handleMap)
		r.Get("/layers", s.handleLayers)
		r.Get("/layers/{typ}", s.handleLayer)
		r.Get("/features", s.handleFeatures)
		r.Post("/reload", s.handleReload)
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
	)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      cors(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type layersResponse struct {
	BuildID string                 `json:"buildId"`
	BuiltAt time.Time              `json:"builtAt"`
	Stale   bool                   `json:"stale"`
	Bounds  domain.Bounds          `json:"bounds"`
	Layers  []mapview.LayerSummary `json:"layers"`
}

func newLayersResponse(v *mapview.View) layersResponse {
	return layersResponse{
		BuildID: v.BuildID,
		BuiltAt: v.BuiltAt,
		Stale:   v.Stale,
		Bounds:  v.Bounds,
		Layers:  v.Summaries(),
	}
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	view, ok := s.currentView(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	view, ok := s.currentView(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newLayersResponse(view))
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	view, ok := s.currentView(w)
	if !ok {
		return
	}
	typ := chi.URLParam(r, "typ")
	layer, found := view.Layer(typ)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown layer %q", typ))
		return
	}
	writeGeoJSON(w, layer.Features)
}

func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	view, ok := s.currentView(w)
	if !ok {
		return
	}
	writeGeoJSON(w, domain.NewFeatureCollection(view.Features()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Load(r.Context())
	if err != nil {
		s.logger.Warn("reload requested but failed",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeError(w, http.StatusServiceUnavailable, domain.UserMessage(err))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newLayersResponse(view))
}

// currentView writes a 503 with the user-facing message when no view exists.
func (s *Server) currentView(w http.ResponseWriter) (*mapview.View, bool) {
	if view := s.svc.View(); view != nil {
		return view, true
	}
	msg := domain.UserMessage(s.svc.LastError())
	if msg == "" {
		msg = domain.UserMessage(errors.New("not loaded"))
	}
	writeError(w, http.StatusServiceUnavailable, msg)
	return nil, false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}

func writeGeoJSON(w http.ResponseWriter, fc domain.FeatureCollection) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fc) //nolint:errcheck // client may have gone away
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves a manifest catalog over HTTP. It is the remote end of the
// "http" protocol (see Source).
type Server struct {
	Source    ports.ManifestSource
	Gatherer  prometheus.Gatherer
	Inspector func() any
	Version   string
	Logger    *slog.Logger
}

// HandlerOption configures the handler built by NewHandler.
type HandlerOption func(*Server)

// WithMetrics exposes gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) HandlerOption {
	return func(s *Server) {
		s.Gatherer = gatherer
	}
}

// WithInspector exposes the value returned by fn as JSON on GET /graph.
func WithInspector(fn func() any) HandlerOption {
	return func(s *Server) {
		s.Inspector = fn
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(version string) HandlerOption {
	return func(s *Server) {
		s.Version = strings.TrimSpace(version)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the catalog.
func NewHandler(source ports.ManifestSource, opts ...HandlerOption) http.Handler {
	server := &Server{
		Source:  source,
		Version: "dev",
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/blueprints", server.ListBlueprints)
	r.Get("/blueprints/{name}", server.GetBlueprint)
	r.Get("/events", server.SubscribeEvents)

	if server.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	}
	if server.Inspector != nil {
		r.Get("/graph", server.GetGraph)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListBlueprints handles the GET /blueprints request.
func (s *Server) ListBlueprints(w http.ResponseWriter, r *http.Request) {
	names, err := s.Source.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("list blueprints failed", "err", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, names)
}

// GetBlueprint handles the GET /blueprints/{name} request.
func (s *Server) GetBlueprint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, err := s.Source.Manifest(r.Context(), name)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, fmt.Sprintf("blueprint %q not found", name), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Manifest error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("get blueprint failed", "blueprint", name, "err", err)
		return
	}
	s.writeJSON(w, m)
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Inspector())
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "frame-catalog",
		"version": s.Version,
	})
}

// SubscribeEvents handles the GET /events request (SSE). Each event carries
// the name of a changed manifest.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	watcher, ok := s.Source.(ports.Watchable)
	if !ok {
		http.Error(w, "catalog does not support watching", http.StatusNotImplemented)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("streaming not supported")
		return
	}

	events, err := watcher.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Sessions is the read-only view of the coordinator needed by the HTTP adapter.
type Sessions interface {
	Snapshot(ctx context.Context, scope string) (*domain.Session, error)
	Scopes(ctx context.Context) ([]string, error)
}

// Server serves health, metrics and session introspection.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager
	logger   *slog.Logger
}

// NewHandler creates the HTTP handler. metrics may be nil to disable /metrics.
func NewHandler(sessions Sessions, streams *StreamManager, metrics http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if streams == nil {
		streams = NewStreamManager(WithStreamLogger(logger))
	}
	s := &Server{Sessions: sessions, Streams: streams, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Get("/{scope}", s.GetSession)
		r.Get("/{scope}/events", s.SubscribeEvents)
	})
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":     "muster",
		"version": strings.TrimSpace(muster.Version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	scopes, err := s.Sessions.Scopes(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("ListSessions failed", "error", err)
		return
	}
	sort.Strings(scopes)
	writeJSON(w, s.logger, http.StatusOK, map[string][]string{"scopes": scopes})
}

// GetSession handles the GET /sessions/{scope} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	session, err := s.Sessions.Snapshot(r.Context(), scope)
	if err != nil {
		http.Error(w, fmt.Sprintf("Snapshot error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetSession failed", "error", err, "scope", scope)
		return
	}
	if session.InitiatorID == "" {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, session)
}

// SubscribeEvents handles GET /sessions/{scope}/events as a Server-Sent Events stream
// of command events for the scope.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, unsubscribe := s.Streams.Subscribe(scope)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "error", err)
	}
}

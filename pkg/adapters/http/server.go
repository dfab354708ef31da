package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/internal/logging"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/runner"
	"github.com/aretw0/statenode/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Session is the representation of one session.
type Session struct {
	SessionID string   `json:"session_id"`
	Machine   string   `json:"machine,omitempty"`
	State     string   `json:"state"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Available []string `json:"available"`
}

// TriggerResult is the response to a processed trigger.
type TriggerResult struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Changed   bool   `json:"changed"`
	Emitted   bool   `json:"emitted"`
}

// Error is the body of every error response.
type Error struct {
	Error   string `json:"error"`
	Trigger string `json:"trigger,omitempty"`
	State   string `json:"state,omitempty"`
}

// Server exposes a session manager over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	// Metrics is mounted on /metrics when set.
	Metrics http.Handler

	Logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams serves /events from streams. The same manager must be the sink of the session nodes.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.Streams = streams
	}
}

// WithMetrics mounts a metrics handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(WithStreamLogger(s.Logger))
	}

	r := chi.NewRouter()
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/definition", s.GetDefinition)
	r.Get("/sessions", s.ListSessions)
	r.Get("/sessions/{id}", s.GetSession)
	r.Delete("/sessions/{id}", s.DeleteSession)
	r.Post("/sessions/{id}/trigger", s.TriggerSession)
	r.Get("/events", s.SubscribeEvents)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>statenode API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// sessionID binds the {id} path parameter.
func sessionID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter id: %w", err)
	}
	if id == "" {
		return "", errors.New("session id is required")
	}
	return id, nil
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if spec, err := GetSpec(r.Context()); err == nil && spec.Info != nil {
		apiVersion = spec.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "statenode-http",
		"version":     strings.TrimSpace(statenode.Version),
		"api_version": apiVersion,
	})
}

// GetDefinition handles the GET /definition request.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	cfg := s.Sessions.Config()
	s.writeJSON(w, http.StatusOK, cfg.Definition())
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "GetSession", err)
		return
	}

	snap, err := s.Sessions.Get(r.Context(), id)
	if errors.Is(err, domain.ErrStateNotFound) {
		s.fail(w, http.StatusNotFound, "GetSession", fmt.Errorf("session '%s' not found", id))
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "GetSession", err)
		return
	}

	available, err := s.Sessions.Available(r.Context(), id)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "GetSession", err)
		return
	}
	if available == nil {
		available = []string{}
	}

	resp := Session{
		SessionID: id,
		Machine:   snap.Machine,
		State:     snap.State,
		Available: available,
	}
	if !snap.UpdatedAt.IsZero() {
		resp.UpdatedAt = snap.UpdatedAt.Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "DeleteSession", err)
		return
	}
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, http.StatusInternalServerError, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TriggerSession handles the POST /sessions/{id}/trigger request.
// The body is a JSON object carrying the raw trigger under the machine's trigger property.
func (s *Server) TriggerSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "TriggerSession", err)
		return
	}

	trigger, err := s.decodeTrigger(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "TriggerSession", err)
		return
	}

	res, err := s.Sessions.Trigger(r.Context(), id, trigger)
	if err != nil {
		var te *statenode.TriggerError
		if errors.As(err, &te) {
			s.writeJSON(w, http.StatusUnprocessableEntity, Error{Error: te.Error(), Trigger: te.Trigger, State: te.State})
			return
		}
		if errors.Is(err, domain.ErrInvalidConfig) {
			s.fail(w, http.StatusInternalServerError, "TriggerSession", err)
			return
		}
		s.fail(w, http.StatusBadGateway, "TriggerSession", err)
		return
	}

	s.writeJSON(w, http.StatusOK, TriggerResult{
		SessionID: id,
		State:     res.State,
		Changed:   res.Changed,
		Emitted:   res.Emitted,
	})
}

func (s *Server) decodeTrigger(r *http.Request) (string, error) {
	property := s.Sessions.Config().TriggerProperty

	body, err := io.ReadAll(io.LimitReader(r.Body, int64(runner.MaxInputSize())+1024))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", fmt.Errorf("invalid request body: %w", err)
	}

	raw, ok := msg[property].(string)
	if !ok {
		return "", fmt.Errorf("request body must carry a string '%s'", property)
	}

	clean, err := runner.CleanTrigger(raw)
	if err != nil {
		return "", fmt.Errorf("invalid trigger: %w", err)
	}
	if clean == "" {
		return "", fmt.Errorf("'%s' is empty", property)
	}
	return clean, nil
}

// SubscribeEvents handles the GET /events request (SSE).
// With session_id only that session's outputs are streamed.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var sessionFilter string
	if err := runtime.BindQueryParameter("form", true, false, "session_id", r.URL.Query(), &sessionFilter); err != nil {
		s.fail(w, http.StatusBadRequest, "SubscribeEvents", fmt.Errorf("invalid format for parameter session_id: %w", err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, http.StatusInternalServerError, "SubscribeEvents", errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionFilter)
	defer cancel()

	s.Logger.Info("SSE: client subscribed", "session_id", sessionFilter)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected", "session_id", sessionFilter)
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

func (s *Server) fail(w http.ResponseWriter, status int, op string, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Warn(op+": request rejected", "err", err)
	}
	s.writeJSON(w, status, Error{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/internal/logging"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/aretw0/statenode/pkg/runner"
	"github.com/aretw0/statenode/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefinitionURI is the resource exposing the machine definition.
const DefinitionURI = "statenode://definition"

// SessionArgs selects one session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// TriggerArgs carries a raw trigger for one session.
type TriggerArgs struct {
	SessionID string `json:"session_id"`
	Trigger   string `json:"trigger"`
}

// SessionResponse aligns with the OpenAPI Session schema.
type SessionResponse struct {
	SessionID string   `json:"session_id" jsonschema_description:"The session ID"`
	State     string   `json:"state" jsonschema_description:"The current state of the session"`
	Available []string `json:"available" jsonschema_description:"Canonical triggers accepted in the current state"`
}

// TriggerResponse aligns with the OpenAPI TriggerResult schema.
type TriggerResponse struct {
	SessionID string `json:"session_id" jsonschema_description:"The session ID"`
	State     string `json:"state" jsonschema_description:"The state after the trigger"`
	Changed   bool   `json:"changed" jsonschema_description:"Whether the trigger moved the machine"`
	Emitted   bool   `json:"emitted" jsonschema_description:"Whether an output was produced"`
}

// SessionList is the result of list_sessions.
type SessionList struct {
	Sessions []string `json:"sessions" jsonschema_description:"IDs of the known sessions"`
}

// Server exposes a session manager as an MCP server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("statenode-mcp", strings.TrimSpace(statenode.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: trigger
	triggerTool := mcp.NewTool("trigger",
		mcp.WithDescription("Deliver a trigger to a session. The trigger is normalized (\"turn-on\" -> \"turnOn\") before lookup."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
		mcp.WithString("trigger", mcp.Required(), mcp.Description("The raw trigger label")),
		mcp.WithOutputSchema[TriggerResponse](),
	)
	s.mcpServer.AddTool(triggerTool, mcp.NewStructuredToolHandler(s.HandleTrigger))

	// TOOL: get_state
	stateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state of a session and the triggers it accepts."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(stateTool, mcp.NewStructuredToolHandler(s.HandleGetState))

	// TOOL: available_triggers
	availableTool := mcp.NewTool("available_triggers",
		mcp.WithDescription("List the canonical triggers a session accepts in its current state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(availableTool, mcp.NewStructuredToolHandler(s.HandleAvailable))

	// TOOL: list_sessions
	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List the known sessions."),
		mcp.WithOutputSchema[SessionList](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.HandleListSessions))

	// TOOL: get_definition
	s.mcpServer.AddTool(mcp.NewTool("get_definition",
		mcp.WithDescription("Get the machine definition (states and transitions) for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := s.definitionJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("definition failed: %v", err)), nil
		}
		return mcp.NewToolResultText(data), nil
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DefinitionURI, "Machine Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.definitionJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DefinitionURI,
				MIMEType: "application/json",
				Text:     data,
			},
		}, nil
	})
}

func (s *Server) definitionJSON() (string, error) {
	cfg := s.sessions.Config()
	data, err := json.Marshal(cfg.Definition())
	if err != nil {
		return "", fmt.Errorf("failed to encode definition: %w", err)
	}
	return string(data), nil
}

// HandleTrigger implements the trigger tool.
func (s *Server) HandleTrigger(ctx context.Context, request mcp.CallToolRequest, args TriggerArgs) (TriggerResponse, error) {
	if args.SessionID == "" {
		return TriggerResponse{}, errors.New("session_id is required")
	}
	trigger, err := runner.CleanTrigger(args.Trigger)
	if err != nil {
		return TriggerResponse{}, fmt.Errorf("invalid trigger: %w", err)
	}
	if trigger == "" {
		return TriggerResponse{}, errors.New("trigger is required")
	}

	res, err := s.sessions.Trigger(ctx, args.SessionID, trigger)
	if err != nil {
		s.logger.Warn("MCP trigger failed", "session_id", args.SessionID, "trigger", trigger, "err", err)
		return TriggerResponse{}, fmt.Errorf("trigger failed: %w", err)
	}
	return TriggerResponse{
		SessionID: args.SessionID,
		State:     res.State,
		Changed:   res.Changed,
		Emitted:   res.Emitted,
	}, nil
}

// HandleGetState implements the get_state tool.
func (s *Server) HandleGetState(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResponse, error) {
	if args.SessionID == "" {
		return SessionResponse{}, errors.New("session_id is required")
	}
	snap, err := s.sessions.Get(ctx, args.SessionID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return SessionResponse{}, fmt.Errorf("session '%s' not found", args.SessionID)
	}
	if err != nil {
		return SessionResponse{}, err
	}
	available, err := s.sessions.Available(ctx, args.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{SessionID: args.SessionID, State: snap.State, Available: orEmpty(available)}, nil
}

// HandleAvailable implements the available_triggers tool.
// Unknown sessions report the triggers of the initial state.
func (s *Server) HandleAvailable(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResponse, error) {
	if args.SessionID == "" {
		return SessionResponse{}, errors.New("session_id is required")
	}
	available, err := s.sessions.Available(ctx, args.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	snap, err := s.sessions.Get(ctx, args.SessionID)
	if err != nil && !errors.Is(err, domain.ErrStateNotFound) {
		return SessionResponse{}, err
	}
	resp := SessionResponse{SessionID: args.SessionID, Available: orEmpty(available)}
	if snap != nil {
		resp.State = snap.State
	}
	return resp, nil
}

// HandleListSessions implements the list_sessions tool.
func (s *Server) HandleListSessions(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SessionList, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return SessionList{}, err
	}
	return SessionList{Sessions: orEmpty(ids)}, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

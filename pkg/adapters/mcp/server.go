package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/aretw0/muster/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const sessionURIPrefix = "muster://sessions/"

// Sessions is the read-only view of the coordinator exposed as resources.
type Sessions interface {
	Snapshot(ctx context.Context, scope string) (*domain.Session, error)
	Scopes(ctx context.Context) ([]string, error)
}

// Server exposes the command registry as MCP tools and sessions as MCP resources.
// It lets an agent drive a coordination on behalf of chat users without Discord.
type Server struct {
	registry  *registry.Registry
	sessions  Sessions
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Keep it off stdout when serving over stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(reg *registry.Registry, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		registry:  reg,
		sessions:  sessions,
		mcpServer: server.NewMCPServer("muster-mcp", strings.TrimSpace(muster.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// registerTools adds one tool per registry command. Every tool takes the invoking
// user and guild on top of the command's own options.
func (s *Server) registerTools() {
	for _, cmd := range s.registry.Commands() {
		opts := []mcp.ToolOption{
			mcp.WithDescription(cmd.Description),
			mcp.WithString("scope", mcp.Required(), mcp.Description("Guild the command is issued in")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User invoking the command")),
			mcp.WithString("channel_id", mcp.Description("Channel the command is issued from")),
		}
		for _, opt := range cmd.Options {
			propOpts := []mcp.PropertyOption{mcp.Description(opt.Description)}
			if opt.Required {
				propOpts = append(propOpts, mcp.Required())
			}
			opts = append(opts, mcp.WithString(opt.Name, propOpts...))
		}
		s.mcpServer.AddTool(mcp.NewTool(cmd.Name, opts...), s.commandHandler(cmd.Name))
	}
}

func (s *Server) commandHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		var inv domain.Invocation
		if err := registry.Decode(args, &inv); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if inv.Scope == "" || inv.UserID == "" {
			return mcp.NewToolResultError("scope and user_id are required"), nil
		}

		msg, err := s.registry.Reply(ctx, name, inv, args)
		if err != nil {
			s.logger.Debug("MCP command rejected", "command", name, "scope", inv.Scope, "err", err)
			return mcp.NewToolResultError(msg.Content), nil
		}
		return mcp.NewToolResultText(msg.Content), nil
	}
}

func (s *Server) registerResources() {
	// EXPOSE: muster://sessions
	s.mcpServer.AddResource(mcp.NewResource("muster://sessions", "Known coordination scopes",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		scopes, err := s.sessions.Scopes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		return jsonContents(request.Params.URI, map[string][]string{"scopes": scopes})
	})

	// EXPOSE: muster://sessions/{scope}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(sessionURIPrefix+"{scope}", "Coordination session",
		mcp.WithTemplateDescription("The coordination session of a guild"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readSession)
}

func (s *Server) readSession(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	scope := strings.TrimPrefix(request.Params.URI, sessionURIPrefix)
	if scope == "" || scope == request.Params.URI {
		return nil, fmt.Errorf("invalid session URI %q", request.Params.URI)
	}
	session, err := s.sessions.Snapshot(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.InitiatorID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, scope)
	}
	return jsonContents(request.Params.URI, session)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// Package tools exposes the Asana API as MCP tools. Every tool call resolves
// the caller's identity (session bound or legacy), obtains a valid access
// token through the auth service and issues the underlying API request with a
// per-call client sharing one process-wide rate limiter.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
	"github.com/MagicTurtle-s/asana-mcp-railway/auth"
	"github.com/MagicTurtle-s/asana-mcp-railway/internal/metrics"
	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
)

const serverVersion = "1.0.0"

// Server registers the Asana tool set on an MCP server and serves it over
// the streamable HTTP transport.
type Server struct {
	mcpServer  *server.MCPServer
	auth       *auth.Service
	limiter    *asana.RateLimiter
	metrics    *metrics.Metrics
	apiBaseURL string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAPIBaseURL overrides the Asana API root (primarily for testing).
func WithAPIBaseURL(baseURL string) ServerOption {
	return func(s *Server) {
		s.apiBaseURL = baseURL
	}
}

// WithMetrics attaches gateway metrics.
func WithMetrics(mx *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = mx
	}
}

// NewServer creates the MCP tool server.
func NewServer(appName string, authService *auth.Service, limiter *asana.RateLimiter, options ...ServerOption) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[NewServer] authService is required")
	}
	if limiter == nil {
		return nil, errors.New("[NewServer] limiter is required")
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			appName,
			serverVersion,
			server.WithToolCapabilities(false),
		),
		auth:       authService,
		limiter:    limiter,
		apiBaseURL: asana.DefaultBaseURL,
	}
	for _, opt := range options {
		opt(s)
	}

	s.registerTools()
	return s, nil
}

// Handler returns the streamable HTTP handler the gateway mounts under /mcp.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// MCPServer exposes the underlying server for in-process test clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// clientFor resolves the caller's identity from the tool arguments and
// returns an API client carrying a valid access token.
func (s *Server) clientFor(ctx context.Context, request mcp.CallToolRequest) (*asana.Client, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	userID, _ := args["user_id"].(string)

	identity := auth.IdentityFromArgs(sessionID, userID)
	token, err := s.auth.ValidTokenFor(ctx, identity)
	if err != nil {
		return nil, err
	}

	return asana.NewClient(token,
		asana.WithBaseURL(s.apiBaseURL),
		asana.WithRateLimiter(s.limiter),
		asana.WithMetrics(s.metrics),
	), nil
}

// errorResult renders a tool failure. Authentication failures get re-auth
// guidance pointing at the OAuth start endpoint.
func errorResult(request mcp.CallToolRequest, err error) *mcp.CallToolResult {
	var authErr *oauth.AuthenticationError
	if errors.As(err, &authErr) {
		sessionID, _ := request.GetArguments()["session_id"].(string)
		if sessionID != "" {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Authentication required: %s\n\nSession %s needs re-authentication.\nVisit /oauth/start?session=%s to re-authenticate.",
				err.Error(), shortID(sessionID), sessionID))
		}
		return mcp.NewToolResultError(fmt.Sprintf(
			"Authentication required: %s\n\nPlease visit /oauth/start to authenticate.", err.Error()))
	}
	if errors.Is(err, auth.ErrReauthRateLimited) {
		return mcp.NewToolResultError("Too many authentication attempts. Please wait before retrying.")
	}

	var rateErr *asana.RateLimitError
	if errors.As(err, &rateErr) {
		return mcp.NewToolResultError(fmt.Sprintf("Asana rate limit exceeded, retry after %s", rateErr.RetryAfter))
	}

	log.Debug().Err(err).Str("tool", request.Params.Name).Msg("tool call failed")
	return mcp.NewToolResultError(err.Error())
}

// jsonResult marshals v as indented JSON tool output.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

func stringArg(args map[string]interface{}, key string) string {
	value, _ := args[key].(string)
	return value
}

func boolArg(args map[string]interface{}, key string) (bool, bool) {
	value, ok := args[key].(bool)
	return value, ok
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	if value, ok := args[key].(float64); ok {
		return int(value)
	}
	return fallback
}

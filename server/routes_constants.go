package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Health & Monitoring Routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// OAuth Routes
	RouteOAuthStart    = "/oauth/start"
	RouteOAuthCallback = "/oauth/callback"
	RouteOAuthStatus   = "/oauth/status"

	// Session Routes
	RouteSessionCreate   = "/session/create"
	RouteSessionValidate = "/session/validate"
	RouteSessionRevoke   = "/session/revoke"
	RouteSessionInfo     = "/session/info"

	// MCP Route
	RouteMCP = "/mcp"
)

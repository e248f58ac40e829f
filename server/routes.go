package server

import "github.com/prometheus/client_golang/prometheus/promhttp"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// OAUTH
	s.RegisterRouteHandler("GET "+RouteOAuthStart, ChainMiddleware(s.OAuthStartHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuthStatus, ChainMiddleware(s.OAuthStatusHandler(), s.APIMiddleware()...))

	// SESSIONS
	s.RegisterRouteHandler("POST "+RouteSessionCreate, ChainMiddleware(s.SessionCreateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSessionValidate, ChainMiddleware(s.SessionValidateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSessionRevoke, ChainMiddleware(s.SessionRevokeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSessionInfo, ChainMiddleware(s.SessionInfoHandler(), s.APIMiddleware()...))

	// Monitoring
	if s.registry != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// MCP streamable HTTP transport
	if s.mcp != nil {
		s.RegisterRouteHandler(RouteMCP, s.mcp)
	}
}

package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
	"github.com/MagicTurtle-s/asana-mcp-railway/auth"
	"github.com/MagicTurtle-s/asana-mcp-railway/internal/config"
	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
	"github.com/MagicTurtle-s/asana-mcp-railway/sessions"
)

const serviceVersion = "1.0.0"

type Server struct {
	env      string // Environment (e.g., "DEV", "PRODUCTION")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	auth     *auth.Service
	sessions *sessions.Manager
	legacy   *oauth.TokenCache
	limiter  *asana.RateLimiter
	registry *prometheus.Registry
	mcp      http.Handler
}

func New(cfg config.Config, authService *auth.Service, sessionStore *sessions.Manager, legacy *oauth.TokenCache, limiter *asana.RateLimiter, registry *prometheus.Registry, mcpHandler http.Handler) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server New] authService is required")
	}
	if sessionStore == nil {
		return nil, errors.New("[Server New] sessionStore is required")
	}
	if legacy == nil {
		return nil, errors.New("[Server New] legacy token cache is required")
	}
	if limiter == nil {
		return nil, errors.New("[Server New] limiter is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		auth:     authService,
		sessions: sessionStore,
		legacy:   legacy,
		limiter:  limiter,
		registry: registry,
		mcp:      mcpHandler,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
	"github.com/MagicTurtle-s/asana-mcp-railway/auth"
	"github.com/MagicTurtle-s/asana-mcp-railway/internal/config"
	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
	"github.com/MagicTurtle-s/asana-mcp-railway/server"
	"github.com/MagicTurtle-s/asana-mcp-railway/sessions"
)

// fakeExchanger satisfies oauth.TokenExchanger with canned responses.
type fakeExchanger struct {
	mu          sync.Mutex
	exchangeSet *oauth.TokenSet
	exchangeErr error
	revoked     []string
}

func (f *fakeExchanger) AuthorizationURL(state, challenge string) string {
	return "https://example.com/authorize?state=" + state
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code, verifier string) (*oauth.TokenSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeSet, nil
}

func (f *fakeExchanger) Refresh(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
	return nil, oauth.NewAuthenticationError("token refresh failed")
}

func (f *fakeExchanger) Revoke(ctx context.Context, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
}

type serverFixture struct {
	server    *server.Server
	exchanger *fakeExchanger
	sessions  *sessions.Manager
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	exchanger := &fakeExchanger{
		exchangeSet: &oauth.TokenSet{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
			UserGID:      "123",
			UserName:     "Jane",
			UserEmail:    "jane@example.com",
		},
	}
	sessionStore := sessions.NewManager()
	verifiers := oauth.NewVerifierCache(oauth.DefaultVerifierTTL)
	t.Cleanup(verifiers.Stop)
	legacy := oauth.NewTokenCache(exchanger)

	authService, err := auth.NewService(auth.Deps{
		Exchanger: exchanger,
		Sessions:  sessionStore,
		Verifiers: verifiers,
		Legacy:    legacy,
	})
	require.NoError(t, err)

	srv, err := server.New(config.New(), authService, sessionStore, legacy,
		asana.NewRateLimiter(asana.DefaultMaxRequestsPerMinute), nil, nil)
	require.NoError(t, err)

	return &serverFixture{server: srv, exchanger: exchanger, sessions: sessionStore}
}

func (fx *serverFixture) do(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reqBody)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, req)

	payload := map[string]interface{}{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func (fx *serverFixture) createSession(t *testing.T, clientID string) string {
	t.Helper()
	rec, payload := fx.do(t, http.MethodPost, server.RouteSessionCreate,
		map[string]string{"client_instance_id": clientID})
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID, _ := payload["session_id"].(string)
	require.NotEmpty(t, sessionID)
	return sessionID
}

// authenticate walks a session through the full flow: start to get the state
// into the verifier cache, then the callback.
func (fx *serverFixture) authenticate(t *testing.T, sessionID string) {
	t.Helper()
	rec, _ := fx.do(t, http.MethodGet, server.RouteOAuthStart+"?session="+sessionID, nil)
	require.Equal(t, http.StatusFound, rec.Code)

	rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthCallback+"?code=abc&state="+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", payload["status"])
}

func TestHealthHandler(t *testing.T) {
	fx := newServerFixture(t)
	rec, payload := fx.do(t, http.MethodGet, server.RouteHealth, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", payload["status"])
	limiter, ok := payload["rate_limiter"].(map[string]interface{})
	require.True(t, ok)
	require.EqualValues(t, asana.DefaultMaxRequestsPerMinute, limiter["max_requests_per_minute"])
}

func TestSessionCreateHandler(t *testing.T) {
	fx := newServerFixture(t)

	t.Run("missing client_instance_id", func(t *testing.T) {
		rec, _ := fx.do(t, http.MethodPost, server.RouteSessionCreate, map[string]string{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("creates a pending session with an oauth url", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodPost, server.RouteSessionCreate,
			map[string]string{"client_instance_id": "client-1"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "success", payload["status"])
		sessionID := payload["session_id"].(string)
		require.Equal(t, server.RouteOAuthStart+"?session="+sessionID, payload["oauth_url"])
		require.Equal(t, sessions.StatePending, fx.sessions.Get(sessionID).State())
	})

	t.Run("replaces the previous session for the same client", func(t *testing.T) {
		first := fx.createSession(t, "client-dup")
		second := fx.createSession(t, "client-dup")
		require.NotEqual(t, first, second)
		require.Equal(t, sessions.StateRevoked, fx.sessions.Get(first).State())
	})
}

func TestOAuthStartHandler(t *testing.T) {
	fx := newServerFixture(t)

	t.Run("unknown session", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthStart+"?session=nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "invalid_session", payload["error"])
	})

	t.Run("redirects to the provider", func(t *testing.T) {
		sessionID := fx.createSession(t, "client-redir")
		rec, _ := fx.do(t, http.MethodGet, server.RouteOAuthStart+"?session="+sessionID, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Contains(t, rec.Header().Get("Location"), "state="+sessionID)
	})

	t.Run("circuit breaker returns 429 with retry_after", func(t *testing.T) {
		sessionID := fx.createSession(t, "client-breaker")
		for i := 0; i < 3; i++ {
			rec, _ := fx.do(t, http.MethodGet, server.RouteOAuthStart+"?session="+sessionID, nil)
			require.Equal(t, http.StatusFound, rec.Code)
		}
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthStart+"?session="+sessionID, nil)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "rate_limited", payload["error"])
		require.EqualValues(t, 600, payload["retry_after"])
	})
}

func TestOAuthCallbackHandler(t *testing.T) {
	fx := newServerFixture(t)

	t.Run("missing parameters", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthCallback, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "missing_parameters", payload["error"])
	})

	t.Run("provider error is relayed", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthCallback+"?error=access_denied&error_description=nope", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "access_denied", payload["error"])
	})

	t.Run("unknown state fails authentication", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthCallback+"?code=abc&state=stale", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "authentication_failed", payload["error"])
	})

	t.Run("session flow activates the session", func(t *testing.T) {
		sessionID := fx.createSession(t, "client-cb")
		fx.authenticate(t, sessionID)

		session := fx.sessions.Get(sessionID)
		require.Equal(t, sessions.StateActive, session.State())
		require.Equal(t, "access-1", session.AccessToken())
	})
}

func TestOAuthStatusHandler(t *testing.T) {
	fx := newServerFixture(t)

	t.Run("legacy unauthenticated", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthStatus, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, false, payload["authenticated"])
		require.Equal(t, true, payload["legacy"])
	})

	t.Run("unknown session", func(t *testing.T) {
		rec, _ := fx.do(t, http.MethodGet, server.RouteOAuthStatus+"?session=nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("pending session carries re-auth guidance", func(t *testing.T) {
		sessionID := fx.createSession(t, "client-status")
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthStatus+"?session="+sessionID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, false, payload["authenticated"])
		require.Contains(t, payload["message"], "/oauth/start?session="+sessionID)
	})

	t.Run("active session", func(t *testing.T) {
		sessionID := fx.createSession(t, "client-status-ok")
		fx.authenticate(t, sessionID)
		rec, payload := fx.do(t, http.MethodGet, server.RouteOAuthStatus+"?session="+sessionID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, true, payload["authenticated"])
		require.Equal(t, string(sessions.StateActive), payload["state"])
	})
}

func TestSessionValidateHandler(t *testing.T) {
	fx := newServerFixture(t)

	t.Run("unknown session requires auth", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodPost, server.RouteSessionValidate,
			map[string]string{"session_id": "nope"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, false, payload["valid"])
		require.Equal(t, true, payload["requires_auth"])
		require.Equal(t, server.RouteOAuthStart+"?session=nope", payload["oauth_url"])
	})

	t.Run("authenticated session is valid", func(t *testing.T) {
		sessionID := fx.createSession(t, "client-validate")
		fx.authenticate(t, sessionID)
		rec, payload := fx.do(t, http.MethodPost, server.RouteSessionValidate,
			map[string]string{"session_id": sessionID})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, true, payload["valid"])
		user := payload["user"].(map[string]interface{})
		require.Equal(t, "Jane", user["name"])
	})
}

func TestSessionRevokeHandler(t *testing.T) {
	fx := newServerFixture(t)

	t.Run("unknown session", func(t *testing.T) {
		rec, _ := fx.do(t, http.MethodPost, server.RouteSessionRevoke,
			map[string]string{"session_id": "nope"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("revokes tokens at the provider", func(t *testing.T) {
		sessionID := fx.createSession(t, "client-revoke")
		fx.authenticate(t, sessionID)

		rec, payload := fx.do(t, http.MethodPost, server.RouteSessionRevoke,
			map[string]string{"session_id": sessionID})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "success", payload["status"])
		require.Equal(t, sessions.StateRevoked, fx.sessions.Get(sessionID).State())
		require.ElementsMatch(t, []string{"access-1", "refresh-1"}, fx.exchanger.revoked)
	})
}

func TestSessionInfoHandler(t *testing.T) {
	fx := newServerFixture(t)
	sessionID := fx.createSession(t, "client-info")

	t.Run("single session", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodGet, server.RouteSessionInfo+"?session="+sessionID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, sessionID, payload["session_id"])
	})

	t.Run("all sessions", func(t *testing.T) {
		rec, payload := fx.do(t, http.MethodGet, server.RouteSessionInfo, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.EqualValues(t, 1, payload["count"])
	})

	t.Run("unknown session", func(t *testing.T) {
		rec, _ := fx.do(t, http.MethodGet, server.RouteSessionInfo+"?session=nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/MagicTurtle-s/asana-mcp-railway/auth"
	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
)

// reauthRetryAfterSeconds is returned with 429 responses when the
// re-authentication circuit breaker is open.
const reauthRetryAfterSeconds = 600

// OAuthStartHandler begins the authorization flow and redirects the user to
// the provider's consent page. With ?session=xxx the flow is bound to that
// session; without it the legacy single-user flow is used.
func (s *Server) OAuthStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")

		identity := auth.IdentityFromArgs(sessionID, "")
		authURL, state, err := s.auth.StartAuthorization(identity)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrSessionNotFound):
				writeError(w, http.StatusNotFound, "invalid_session", "Session not found")
			case errors.Is(err, auth.ErrReauthRateLimited):
				writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"error":       "rate_limited",
					"description": "Too many authentication attempts. Please wait before trying again.",
					"retry_after": reauthRetryAfterSeconds,
				})
			default:
				writeError(w, http.StatusInternalServerError, "authorization_failed", err.Error())
			}
			return
		}

		if sessionID != "" {
			log.Info().Str("session_id", shortID(sessionID)).Msg("starting OAuth flow for session")
		} else {
			log.Info().Str("state", shortID(state)).Msg("starting OAuth flow (legacy)")
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes the authorization flow: it exchanges the
// code for tokens and stores them against the session named by the state
// parameter, or in the legacy token cache.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if oauthErr := query.Get("error"); oauthErr != "" {
			log.Error().Str("error", oauthErr).Msg("OAuth provider error")
			description := query.Get("error_description")
			if description == "" {
				description = "Unknown error"
			}
			writeError(w, http.StatusBadRequest, oauthErr, description)
			return
		}

		code := query.Get("code")
		state := query.Get("state")
		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "missing_parameters", "Missing code or state parameter")
			return
		}

		tokens, err := s.auth.CompleteAuthorization(r.Context(), code, state)
		if err != nil {
			var authErr *oauth.AuthenticationError
			if errors.As(err, &authErr) {
				log.Error().Err(err).Msg("OAuth callback error")
				writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "authentication_failed", err.Error())
			return
		}

		user := map[string]interface{}{
			"gid":   tokens.UserGID,
			"name":  tokens.UserName,
			"email": tokens.UserEmail,
		}

		if session := s.sessions.Get(state); session != nil {
			log.Info().
				Str("session_id", shortID(state)).
				Str("user", tokens.UserName).
				Msg("OAuth successful for session")
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"status":     "success",
				"message":    "Authentication successful! You can close this window.",
				"session_id": state,
				"user":       user,
			})
			return
		}

		log.Info().Str("user", tokens.UserName).Msg("OAuth successful (legacy)")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "success",
			"message": "Authentication successful!",
			"user":    user,
		})
	}
}

// OAuthStatusHandler reports the authentication status of a session, or of
// the legacy default user when no session is given.
func (s *Server) OAuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")

		if sessionID == "" {
			if s.legacy.IsAuthenticated(auth.DefaultLegacyUserID) {
				writeJSON(w, http.StatusOK, map[string]interface{}{
					"authenticated": true,
					"user":          s.legacy.UserInfo(auth.DefaultLegacyUserID),
					"legacy":        true,
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"authenticated": false,
				"message":       "Not authenticated. Visit /oauth/start to authenticate.",
				"legacy":        true,
			})
			return
		}

		session := s.sessions.Get(sessionID)
		if session == nil {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"authenticated": false,
				"error":         "session_not_found",
				"message":       "Session not found",
			})
			return
		}

		valid, reason := s.sessions.Validate(sessionID)
		info := session.Snapshot()

		if valid {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"authenticated": true,
				"session_id":    sessionID,
				"state":         info.State,
				"user":          info.User,
				"token_expired": info.TokenExpired,
				"needs_refresh": info.NeedsRefresh,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
			"session_id":    sessionID,
			"state":         info.State,
			"error":         reason,
			"message":       "Session invalid: " + reason + ". Visit /oauth/start?session=" + sessionID + " to re-authenticate.",
		})
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

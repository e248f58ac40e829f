package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type sessionCreateRequest struct {
	ClientInstanceID string `json:"client_instance_id"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

// SessionCreateHandler creates a PENDING session for a client instance and
// returns the OAuth URL the user must visit to authenticate it. Creating a
// session for a client that already has one revokes the previous session.
func (s *Server) SessionCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
			return
		}
		if req.ClientInstanceID == "" {
			writeError(w, http.StatusBadRequest, "missing_parameter", "client_instance_id is required")
			return
		}

		sessionID, err := s.sessions.Create(req.ClientInstanceID)
		if err != nil {
			log.Error().Err(err).Msg("session creation error")
			writeError(w, http.StatusInternalServerError, "session_creation_failed", err.Error())
			return
		}

		log.Info().
			Str("session_id", shortID(sessionID)).
			Str("client_instance_id", req.ClientInstanceID).
			Msg("created session")

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":             "success",
			"session_id":         sessionID,
			"client_instance_id": req.ClientInstanceID,
			"oauth_url":          RouteOAuthStart + "?session=" + sessionID,
			"message":            "Session created. User should visit oauth_url to authenticate.",
		})
	}
}

// SessionValidateHandler checks that a session is active and ready for API
// calls, returning re-auth guidance when it is not.
func (s *Server) SessionValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
			return
		}
		if req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "missing_parameter", "session_id is required")
			return
		}

		valid, reason := s.sessions.Validate(req.SessionID)
		if session := s.sessions.Get(req.SessionID); valid && session != nil {
			info := session.Snapshot()
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"valid":      true,
				"session_id": req.SessionID,
				"user":       info.User,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid":         false,
			"session_id":    req.SessionID,
			"error":         reason,
			"requires_auth": true,
			"oauth_url":     RouteOAuthStart + "?session=" + req.SessionID,
		})
	}
}

// SessionRevokeHandler explicitly revokes a session, revoking its tokens at
// the provider on a best-effort basis.
func (s *Server) SessionRevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
			return
		}
		if req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "missing_parameter", "session_id is required")
			return
		}

		if !s.auth.RevokeSession(r.Context(), req.SessionID) {
			writeError(w, http.StatusNotFound, "session_not_found", "Session not found")
			return
		}

		log.Info().Str("session_id", shortID(req.SessionID)).Msg("revoked session")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "success",
			"message": "Session revoked successfully",
		})
	}
}

// SessionInfoHandler returns detailed session information for debugging and
// monitoring. Without ?session=xxx it lists all sessions.
func (s *Server) SessionInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")

		if sessionID == "" {
			all := s.sessions.AllInfo()
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"sessions": all,
				"count":    len(all),
			})
			return
		}

		info := s.sessions.Info(sessionID)
		if info == nil {
			writeError(w, http.StatusNotFound, "session_not_found", "Session not found")
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

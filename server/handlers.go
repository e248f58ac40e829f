package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]interface{}{
		"error":       code,
		"description": description,
	})
}

// HealthHandler reports service liveness and the rate limiter's headroom.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": s.config.GetAppName(),
			"version": serviceVersion,
			"rate_limiter": map[string]interface{}{
				"max_requests_per_minute": s.limiter.Max(),
				"remaining":               s.limiter.Remaining(),
			},
		})
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MagicTurtle-s/asana-mcp-railway/internal/metrics"
	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
	"github.com/MagicTurtle-s/asana-mcp-railway/sessions"
)

var (
	// ErrSessionNotFound is returned when an authorization flow is started
	// for a session the store does not know.
	ErrSessionNotFound = errors.New("session not found")

	// ErrReauthRateLimited is returned when the session's circuit breaker
	// refuses another authorization flow. Callers surface it as a
	// rate-limited response instead of redirecting to Asana.
	ErrReauthRateLimited = errors.New("too many authentication attempts")
)

const (
	// refreshWaitTimeout bounds how long a caller waits for a concurrent
	// in-flight refresh before failing closed.
	refreshWaitTimeout = 10 * time.Second

	// refreshPollInterval is the re-check interval during that wait.
	refreshPollInterval = 100 * time.Millisecond
)

// Deps holds the collaborators of the authentication Service.
type Deps struct {
	Exchanger oauth.TokenExchanger
	Sessions  *sessions.Manager
	Verifiers *oauth.VerifierCache
	Legacy    *oauth.TokenCache
}

// Service orchestrates the authorization flow and token lifecycle. It is the
// only component that mutates token fields on a live session.
type Service struct {
	exchanger oauth.TokenExchanger
	sessions  *sessions.Manager
	verifiers *oauth.VerifierCache
	legacy    *oauth.TokenCache
	metrics   *metrics.Metrics

	waitTimeout  time.Duration
	pollInterval time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics attaches gateway metrics to the service.
func WithMetrics(mx *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = mx
	}
}

// WithRefreshWait overrides the bounded wait applied when another caller's
// refresh is in flight. Zero values keep the defaults.
func WithRefreshWait(timeout, interval time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.waitTimeout = timeout
		}
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// NewService creates the authentication orchestrator.
func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Exchanger == nil {
		return nil, errors.New("[NewService] Exchanger is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[NewService] Sessions manager is required")
	}
	if deps.Verifiers == nil {
		return nil, errors.New("[NewService] Verifier cache is required")
	}
	if deps.Legacy == nil {
		return nil, errors.New("[NewService] Legacy token cache is required")
	}

	s := &Service{
		exchanger:    deps.Exchanger,
		sessions:     deps.Sessions,
		verifiers:    deps.Verifiers,
		legacy:       deps.Legacy,
		waitTimeout:  refreshWaitTimeout,
		pollInterval: refreshPollInterval,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// StartAuthorization begins the authorization flow for the given caller and
// returns the Asana redirect URL plus the state parameter. For session-bound
// callers the state is the session ID and the circuit breaker is consulted
// first; legacy callers get a fresh random state.
func (s *Service) StartAuthorization(identity Identity) (authURL, state string, err error) {
	switch id := identity.(type) {
	case SessionBound:
		session := s.sessions.Get(id.SessionID)
		if session == nil {
			return "", "", ErrSessionNotFound
		}
		if !session.ShouldAllowReauth() {
			s.metrics.IncReauthBlocked()
			log.Warn().Str("session_id", shortID(id.SessionID)).Msg("re-auth refused by circuit breaker")
			return "", "", ErrReauthRateLimited
		}
		session.RecordReauthAttempt()
		state = id.SessionID
	default:
		state, err = oauth.RandomState()
		if err != nil {
			return "", "", err
		}
	}

	verifier, challenge, err := oauth.GeneratePKCE()
	if err != nil {
		return "", "", err
	}
	s.verifiers.Put(state, verifier)

	return s.exchanger.AuthorizationURL(state, challenge), state, nil
}

// CompleteAuthorization consumes the PKCE verifier for the callback's state,
// exchanges the authorization code and routes the resulting tokens into the
// session store or, for unknown states, the legacy cache.
func (s *Service) CompleteAuthorization(ctx context.Context, code, state string) (*oauth.TokenSet, error) {
	verifier, ok := s.verifiers.Take(state)
	if !ok {
		return nil, oauth.NewAuthenticationError("invalid state parameter or PKCE verifier not found")
	}

	ts, err := s.exchanger.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	if session := s.sessions.Get(state); session != nil {
		s.sessions.Store(state, ts.AccessToken, ts.RefreshToken, ts.ExpiresIn, ts.UserGID, ts.UserName, ts.UserEmail)
		log.Info().Str("session_id", shortID(state)).Str("user", ts.UserName).Msg("authorization completed for session")
	} else {
		userID := ts.UserGID
		if userID == "" {
			userID = DefaultLegacyUserID
		}
		s.legacy.StoreTokens(userID, ts)
		log.Info().Str("user", ts.UserName).Msg("authorization completed (legacy)")
	}
	return ts, nil
}

// ValidTokenForSession returns a live access token for the session,
// refreshing it under the session's refresh lock when it is within the
// expiry buffer. Concurrent callers observing the same expired token agree
// on a single provider refresh and share its result.
func (s *Service) ValidTokenForSession(ctx context.Context, session *sessions.Session) (string, error) {
	if session.AccessToken() == "" {
		return "", oauth.NewAuthenticationError("session not authenticated")
	}

	// Fast path: token writes only ever happen under the refresh lock, so a
	// token that does not need refreshing can be read without taking it.
	if !session.NeedsRefresh() {
		return session.AccessToken(), nil
	}

	session.LockRefresh()
	defer session.UnlockRefresh()

	// Another caller may have refreshed while we waited for the lock.
	if !session.NeedsRefresh() {
		return session.AccessToken(), nil
	}

	// Defensive double-check: the flag should be unreachable while the lock
	// is held, but a refresher that died mid-flight must not strand us.
	if session.Refreshing() {
		return s.waitForRefresh(ctx, session)
	}

	session.SetRefreshing(true)
	defer session.SetRefreshing(false)

	ts, err := s.exchanger.Refresh(ctx, session.RefreshToken())
	if err != nil {
		session.SetState(sessions.StateExpired)
		session.IncrementRetryCount()
		s.metrics.IncTokenRefreshFailures()
		log.Warn().Err(err).Str("session_id", shortID(session.ID())).Msg("token refresh failed")
		return "", err
	}

	session.UpdateTokens(ts.AccessToken, ts.RefreshToken, ts.ExpiresIn)
	s.metrics.IncTokenRefreshes()
	log.Info().Str("session_id", shortID(session.ID())).Msg("refreshed session token")
	return ts.AccessToken, nil
}

// waitForRefresh polls the in-flight refresh flag in short intervals up to a
// bounded timeout, then fails closed.
func (s *Service) waitForRefresh(ctx context.Context, session *sessions.Session) (string, error) {
	deadline := time.Now().Add(s.waitTimeout)
	for {
		if !session.Refreshing() {
			token := session.AccessToken()
			if token == "" {
				return "", oauth.NewAuthenticationError("concurrent token refresh failed")
			}
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", oauth.NewAuthenticationError("timed out waiting for concurrent token refresh")
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// ValidTokenFor resolves a live access token for either caller identity.
func (s *Service) ValidTokenFor(ctx context.Context, identity Identity) (string, error) {
	switch id := identity.(type) {
	case SessionBound:
		session := s.sessions.Get(id.SessionID)
		if session == nil {
			return "", oauth.NewAuthenticationError(sessions.ReasonNotFound)
		}
		switch session.State() {
		case sessions.StateRevoked:
			return "", oauth.NewAuthenticationError(sessions.ReasonRevoked)
		case sessions.StatePurged:
			return "", oauth.NewAuthenticationError(sessions.ReasonPurged)
		case sessions.StatePending:
			return "", oauth.NewAuthenticationError(sessions.ReasonPending)
		}
		return s.ValidTokenForSession(ctx, session)
	case LegacyUser:
		return s.legacy.ValidToken(ctx, id.UserID)
	default:
		return "", fmt.Errorf("unsupported identity %T", identity)
	}
}

// RevokeSession revokes the session's tokens at the provider (best effort)
// and terminates the session in the store. Returns false if the session does
// not exist.
func (s *Service) RevokeSession(ctx context.Context, sessionID string) bool {
	session := s.sessions.Get(sessionID)
	if session == nil {
		return false
	}
	if token := session.AccessToken(); token != "" {
		s.exchanger.Revoke(ctx, token)
	}
	if token := session.RefreshToken(); token != "" {
		s.exchanger.Revoke(ctx, token)
	}
	return s.sessions.Revoke(sessionID)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

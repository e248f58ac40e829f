package sessions

import (
	"sync"
	"time"
)

// State is the lifecycle state of a Session.
type State string

const (
	StatePending State = "pending" // OAuth initiated, waiting for callback
	StateActive  State = "active"  // Authenticated and ready
	StateExpired State = "expired" // Token expired, needs refresh
	StateRevoked State = "revoked" // Explicitly revoked
	StatePurged  State = "purged"  // Cleaned up after prolonged inactivity
)

const (
	// TokenExpiryBuffer is subtracted from the literal token expiry: a token
	// is treated as expired five minutes before Asana would reject it, so a
	// request started just under the wire never fails mid-flight.
	TokenExpiryBuffer = 5 * time.Minute

	// DefaultReauthMaxAttempts and DefaultReauthWindow bound how often an
	// authorization flow may be restarted for one session.
	DefaultReauthMaxAttempts = 3
	DefaultReauthWindow      = 10 * time.Minute

	// maxRefreshRetries bounds transient-failure retries after a failed
	// authentication.
	maxRefreshRetries = 1
)

// reauthAttempts tracks the circuit breaker window for authorization-flow
// restarts. The window is measured from the most recent recorded attempt.
type reauthAttempts struct {
	lastAttempt time.Time
	count       int
}

// Session binds an opaque identifier to one authenticated Asana user on
// behalf of a single client application instance. All fields are guarded by
// mu; the separate refresh mutex serializes token refreshes without blocking
// plain field access.
type Session struct {
	mu sync.Mutex

	id               string
	clientInstanceID string
	state            State
	createdAt        time.Time
	lastUsedAt       time.Time

	accessToken    string
	refreshToken   string
	tokenExpiresAt time.Time

	userGID   string
	userName  string
	userEmail string

	refreshMu  sync.Mutex
	refreshing bool

	reauth            reauthAttempts
	reauthMaxAttempts int
	reauthWindow      time.Duration
	retryCount        int

	nowTime func() time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// ClientInstanceID returns the identifier of the client application instance
// that owns this session.
func (s *Session) ClientInstanceID() string { return s.clientInstanceID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState forces the session into the given state.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// AccessToken returns the current access token, empty if the session has
// never authenticated or has been revoked.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// UpdateTokens stores a fresh token pair and moves the session to the active
// state. Both tokens are replaced together so the pair never mixes
// generations.
func (s *Session) UpdateTokens(accessToken, refreshToken string, expiresIn int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowTime()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.tokenExpiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	s.state = StateActive
	s.lastUsedAt = now
}

// UpdateUserInfo records the authenticated user's identity.
func (s *Session) UpdateUserInfo(gid, name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userGID = gid
	s.userName = name
	s.userEmail = email
}

// clearTokens drops both tokens. Caller must hold mu.
func (s *Session) clearTokens() {
	s.accessToken = ""
	s.refreshToken = ""
}

// IsTokenExpired reports whether the access token is expired, applying the
// safety buffer. A session with no recorded expiry counts as expired.
func (s *Session) IsTokenExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTokenExpiredLocked()
}

func (s *Session) isTokenExpiredLocked() bool {
	if s.tokenExpiresAt.IsZero() {
		return true
	}
	return !s.nowTime().Before(s.tokenExpiresAt.Add(-TokenExpiryBuffer))
}

// NeedsRefresh reports whether the token is expired and a refresh token is
// available to renew it.
func (s *Session) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTokenExpiredLocked() && s.refreshToken != ""
}

// LockRefresh acquires the per-session refresh lock. At most one provider
// refresh call is in flight per session while it is held.
func (s *Session) LockRefresh() { s.refreshMu.Lock() }

// UnlockRefresh releases the per-session refresh lock.
func (s *Session) UnlockRefresh() { s.refreshMu.Unlock() }

// Refreshing reports whether a token refresh is currently in flight.
func (s *Session) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

// SetRefreshing flips the in-flight refresh flag.
func (s *Session) SetRefreshing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = v
}

// ShouldAllowReauth reports whether a new authorization flow may be started
// for this session. Once the window has elapsed since the latest attempt the
// counter resets and attempts are allowed again.
func (s *Session) ShouldAllowReauth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reauth.count == 0 {
		return true
	}
	if s.nowTime().Sub(s.reauth.lastAttempt) > s.reauthWindow {
		s.reauth.count = 0
		return true
	}
	return s.reauth.count < s.reauthMaxAttempts
}

// RecordReauthAttempt counts one authorization-flow start against the
// circuit breaker window.
func (s *Session) RecordReauthAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reauth.count++
	s.reauth.lastAttempt = s.nowTime()
}

// ReauthAttempts returns the current attempt count within the window.
func (s *Session) ReauthAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reauth.count
}

// ResetRetryCount clears the transient-failure retry counter after a
// successful authentication.
func (s *Session) ResetRetryCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryCount = 0
}

// IncrementRetryCount counts one transient failure and reports whether
// another retry is still allowed.
func (s *Session) IncrementRetryCount() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryCount++
	return s.retryCount <= maxRefreshRetries
}

// Touch updates the last-used timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = s.nowTime()
}

// LastUsedAt returns when the session was last fetched or updated.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// UserInfo describes the authenticated Asana user bound to a session.
type UserInfo struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Info is a read-only snapshot of a session for monitoring. It never exposes
// token material.
type Info struct {
	SessionID        string    `json:"session_id"`
	ClientInstanceID string    `json:"client_instance_id"`
	State            State     `json:"state"`
	CreatedAt        time.Time `json:"created_at"`
	LastUsedAt       time.Time `json:"last_used_at"`
	User             *UserInfo `json:"user,omitempty"`
	TokenExpired     bool      `json:"token_expired"`
	NeedsRefresh     bool      `json:"needs_refresh"`
	RetryCount       int       `json:"retry_count"`
	ReauthAttempts   int       `json:"re_auth_attempts"`
}

// Snapshot returns a point-in-time view of the session.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		SessionID:        s.id,
		ClientInstanceID: s.clientInstanceID,
		State:            s.state,
		CreatedAt:        s.createdAt,
		LastUsedAt:       s.lastUsedAt,
		TokenExpired:     s.isTokenExpiredLocked(),
		NeedsRefresh:     s.isTokenExpiredLocked() && s.refreshToken != "",
		RetryCount:       s.retryCount,
		ReauthAttempts:   s.reauth.count,
	}
	if s.userGID != "" {
		info.User = &UserInfo{GID: s.userGID, Name: s.userName, Email: s.userEmail}
	}
	return info
}

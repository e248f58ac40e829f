package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MagicTurtle-s/asana-mcp-railway/internal/metrics"
)

// Manager owns every Session and enforces the one-live-session-per-client
// invariant. The store-wide mutex guards only the in-memory maps; it is never
// held across a network call.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	byClient  map[string]string // client instance ID -> current session ID
	nowTime   func() time.Time
	metrics   *metrics.Metrics
	reauthMax int
	reauthWin time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithMetrics attaches gateway metrics to the manager.
func WithMetrics(mx *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = mx
	}
}

// WithReauthPolicy overrides the circuit breaker policy applied to new
// sessions.
func WithReauthPolicy(maxAttempts int, window time.Duration) ManagerOption {
	return func(m *Manager) {
		m.reauthMax = maxAttempts
		m.reauthWin = window
	}
}

// NewManager creates an empty session store.
func NewManager(options ...ManagerOption) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		byClient:  make(map[string]string),
		nowTime:   time.Now,
		reauthMax: DefaultReauthMaxAttempts,
		reauthWin: DefaultReauthWindow,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// generateSessionID returns a 256-bit URL-safe random identifier.
func generateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create makes a new pending session for the given client instance. If the
// instance already owns a session, that session is revoked and its tokens
// cleared before the new one takes over the index slot.
func (m *Manager) Create(clientInstanceID string) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if oldID, ok := m.byClient[clientInstanceID]; ok {
		if old, ok := m.sessions[oldID]; ok {
			old.mu.Lock()
			old.state = StateRevoked
			old.clearTokens()
			old.mu.Unlock()
			m.metrics.IncSessionsRevoked()
			log.Info().Str("session_id", shortID(oldID)).Str("client_instance_id", clientInstanceID).
				Msg("revoked old session for client instance")
		}
	}

	now := m.nowTime()
	session := &Session{
		id:                sessionID,
		clientInstanceID:  clientInstanceID,
		state:             StatePending,
		createdAt:         now,
		lastUsedAt:        now,
		reauthMaxAttempts: m.reauthMax,
		reauthWindow:      m.reauthWin,
		nowTime:           m.nowTime,
	}
	m.sessions[sessionID] = session
	m.byClient[clientInstanceID] = sessionID

	m.metrics.IncSessionsCreated()
	m.metrics.SetActiveSessions(len(m.sessions))
	log.Info().Str("session_id", shortID(sessionID)).Str("client_instance_id", clientInstanceID).
		Msg("created session")
	return sessionID, nil
}

// Get returns the session for the given ID, or nil if unknown. Fetching a
// session counts as use and refreshes its last-used timestamp.
func (m *Manager) Get(sessionID string) *Session {
	m.mu.Lock()
	session := m.sessions[sessionID]
	m.mu.Unlock()
	if session != nil {
		session.Touch()
	}
	return session
}

// Store writes authentication data into a session after a successful code
// exchange. Returns false if the session does not exist.
func (m *Manager) Store(sessionID, accessToken, refreshToken string, expiresIn int64, userGID, userName, userEmail string) bool {
	session := m.Get(sessionID)
	if session == nil {
		log.Error().Str("session_id", shortID(sessionID)).Msg("store: session not found")
		return false
	}
	session.UpdateTokens(accessToken, refreshToken, expiresIn)
	session.UpdateUserInfo(userGID, userName, userEmail)
	session.ResetRetryCount()
	log.Info().Str("session_id", shortID(sessionID)).Str("user", userName).Msg("stored tokens for session")
	return true
}

// UpdateTokens replaces a session's token pair after a refresh. Returns
// false if the session does not exist.
func (m *Manager) UpdateTokens(sessionID, accessToken, refreshToken string, expiresIn int64) bool {
	session := m.Get(sessionID)
	if session == nil {
		log.Error().Str("session_id", shortID(sessionID)).Msg("update: session not found")
		return false
	}
	session.UpdateTokens(accessToken, refreshToken, expiresIn)
	return true
}

// Validation failure reasons returned by Validate.
const (
	ReasonNotFound        = "session not found"
	ReasonRevoked         = "session has been revoked"
	ReasonPurged          = "session has been purged"
	ReasonPending         = "session pending authentication"
	ReasonUnauthenticated = "session not authenticated"
	ReasonExpired         = "session token expired, refresh required"
)

// Validate checks that a session is ready for API calls. It returns false
// with a human-readable reason otherwise. A session observed past its token
// expiry is marked expired as a side effect.
func (m *Manager) Validate(sessionID string) (bool, string) {
	session := m.Get(sessionID)
	if session == nil {
		return false, ReasonNotFound
	}

	switch session.State() {
	case StateRevoked:
		return false, ReasonRevoked
	case StatePurged:
		return false, ReasonPurged
	case StatePending:
		return false, ReasonPending
	}

	if session.AccessToken() == "" {
		return false, ReasonUnauthenticated
	}

	if session.NeedsRefresh() {
		session.SetState(StateExpired)
		return false, ReasonExpired
	}

	return true, ""
}

// Revoke terminates a session, clears its tokens and frees the client
// instance index slot. Returns false if the session does not exist.
func (m *Manager) Revoke(sessionID string) bool {
	m.mu.Lock()
	session := m.sessions[sessionID]
	m.mu.Unlock()
	if session == nil {
		return false
	}

	session.mu.Lock()
	session.state = StateRevoked
	session.clearTokens()
	clientID := session.clientInstanceID
	session.mu.Unlock()

	m.mu.Lock()
	if m.byClient[clientID] == sessionID {
		delete(m.byClient, clientID)
	}
	m.mu.Unlock()

	m.metrics.IncSessionsRevoked()
	log.Info().Str("session_id", shortID(sessionID)).Msg("revoked session")
	return true
}

// GetOrCreate returns the client instance's existing session when it is
// still recoverable (active or merely expired), otherwise creates a fresh
// one.
func (m *Manager) GetOrCreate(clientInstanceID string) (string, error) {
	m.mu.Lock()
	sessionID, ok := m.byClient[clientInstanceID]
	m.mu.Unlock()

	if ok {
		if session := m.Get(sessionID); session != nil {
			switch session.State() {
			case StateActive, StateExpired:
				return sessionID, nil
			}
		}
	}
	return m.Create(clientInstanceID)
}

// PurgeStale removes every session whose last use is older than maxAge and
// returns how many were purged.
func (m *Manager) PurgeStale(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.nowTime().Add(-maxAge)
	purged := 0
	for sessionID, session := range m.sessions {
		session.mu.Lock()
		stale := session.lastUsedAt.Before(cutoff)
		if stale {
			session.state = StatePurged
			session.clearTokens()
		}
		clientID := session.clientInstanceID
		session.mu.Unlock()

		if !stale {
			continue
		}
		if m.byClient[clientID] == sessionID {
			delete(m.byClient, clientID)
		}
		delete(m.sessions, sessionID)
		purged++
	}

	if purged > 0 {
		m.metrics.AddSessionsPurged(purged)
		m.metrics.SetActiveSessions(len(m.sessions))
		log.Info().Int("count", purged).Msg("purged stale sessions")
	}
	return purged
}

// Info returns a monitoring snapshot for one session, nil if unknown. Unlike
// Get it does not count as use.
func (m *Manager) Info(sessionID string) *Info {
	m.mu.Lock()
	session := m.sessions[sessionID]
	m.mu.Unlock()
	if session == nil {
		return nil
	}
	info := session.Snapshot()
	return &info
}

// AllInfo returns monitoring snapshots for every tracked session.
func (m *Manager) AllInfo() map[string]Info {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	all := make(map[string]Info, len(ids))
	for _, id := range ids {
		if info := m.Info(id); info != nil {
			all[id] = *info
		}
	}
	return all
}

// shortID truncates a session ID for log output so full identifiers never
// land in logs.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

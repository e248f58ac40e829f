package auth

// DefaultLegacyUserID keys the legacy token cache for callers that provide
// neither a session nor a user identifier.
const DefaultLegacyUserID = "default_user"

// Identity names the caller of a tool call. It is a closed union: either a
// legacy single-user caller or a session-bound one. The orchestrator's
// refresh and circuit-breaker logic is written once against this union
// instead of branching ad hoc at every call site.
type Identity interface {
	isIdentity()
}

// LegacyUser identifies a caller on the pre-session authentication path.
type LegacyUser struct {
	UserID string
}

func (LegacyUser) isIdentity() {}

// SessionBound identifies a caller by its session.
type SessionBound struct {
	SessionID string
}

func (SessionBound) isIdentity() {}

// IdentityFromArgs derives the caller identity from tool-call arguments:
// a session_id wins, otherwise the user_id (or the default legacy user).
func IdentityFromArgs(sessionID, userID string) Identity {
	if sessionID != "" {
		return SessionBound{SessionID: sessionID}
	}
	if userID == "" {
		userID = DefaultLegacyUserID
	}
	return LegacyUser{UserID: userID}
}

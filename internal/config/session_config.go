package config

import "time"

type SessionConfig interface {
	GetSessionMaxAge() time.Duration
	GetPurgeInterval() time.Duration
	GetVerifierTTL() time.Duration
	GetRefreshWaitTimeout() time.Duration
	GetReauthMaxAttempts() int
	GetReauthWindow() time.Duration
}

type Sessions struct{}

var _ SessionConfig = Sessions{}

// GetSessionMaxAge is the age after which unused sessions are purged.
func (Sessions) GetSessionMaxAge() time.Duration {
	return 30 * 24 * time.Hour
}

func (Sessions) GetPurgeInterval() time.Duration {
	return 24 * time.Hour
}

// GetVerifierTTL bounds how long a pending authorization may wait for its
// callback before the PKCE verifier is discarded.
func (Sessions) GetVerifierTTL() time.Duration {
	return 10 * time.Minute
}

func (Sessions) GetRefreshWaitTimeout() time.Duration {
	return 10 * time.Second
}

func (Sessions) GetReauthMaxAttempts() int {
	return 3
}

func (Sessions) GetReauthWindow() time.Duration {
	return 10 * time.Minute
}

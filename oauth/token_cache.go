package oauth

import (
	"context"
	"sync"
	"time"
)

// tokenExpiryBuffer mirrors the session store's refresh buffer: cached
// tokens are renewed five minutes before their literal expiry.
const tokenExpiryBuffer = 5 * time.Minute

type cachedToken struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	userGID      string
	userName     string
	userEmail    string
}

// TokenCache is the legacy, pre-session authentication path: a per-user
// token store for callers that do not carry a session identifier. It shares
// the exchanger with the session path but has no state machine or circuit
// breaker.
type TokenCache struct {
	mu        sync.Mutex
	tokens    map[string]*cachedToken
	exchanger TokenExchanger
	nowTime   func() time.Time
}

// TokenCacheOption configures a TokenCache.
type TokenCacheOption func(*TokenCache)

// WithTokenCacheNowTime sets the clock function (primarily for testing).
func WithTokenCacheNowTime(nowFunc func() time.Time) TokenCacheOption {
	return func(c *TokenCache) {
		c.nowTime = nowFunc
	}
}

// NewTokenCache creates an empty legacy token cache backed by the given
// exchanger.
func NewTokenCache(exchanger TokenExchanger, options ...TokenCacheOption) *TokenCache {
	c := &TokenCache{
		tokens:    make(map[string]*cachedToken),
		exchanger: exchanger,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// StoreTokens caches a token set for a user.
func (c *TokenCache) StoreTokens(userID string, ts *TokenSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[userID] = &cachedToken{
		accessToken:  ts.AccessToken,
		refreshToken: ts.RefreshToken,
		expiresAt:    c.nowTime().Add(time.Duration(ts.ExpiresIn) * time.Second),
		userGID:      ts.UserGID,
		userName:     ts.UserName,
		userEmail:    ts.UserEmail,
	}
}

// ValidToken returns a live access token for the user, refreshing through
// the exchanger when the cached one is within the expiry buffer.
func (c *TokenCache) ValidToken(ctx context.Context, userID string) (string, error) {
	c.mu.Lock()
	cached, ok := c.tokens[userID]
	if !ok {
		c.mu.Unlock()
		return "", NewAuthenticationError("user not authenticated")
	}
	accessToken := cached.accessToken
	refreshToken := cached.refreshToken
	expiresAt := cached.expiresAt
	c.mu.Unlock()

	if c.nowTime().Before(expiresAt.Add(-tokenExpiryBuffer)) {
		return accessToken, nil
	}

	ts, err := c.exchanger.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	c.StoreTokens(userID, ts)
	return ts.AccessToken, nil
}

// UserInfo returns the cached identity for a user, nil if unknown.
func (c *TokenCache) UserInfo(userID string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.tokens[userID]
	if !ok {
		return nil
	}
	return map[string]string{
		"user_gid":   cached.userGID,
		"user_name":  cached.userName,
		"user_email": cached.userEmail,
	}
}

// IsAuthenticated reports whether the user has cached tokens.
func (c *TokenCache) IsAuthenticated(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tokens[userID]
	return ok
}

// Logout revokes the user's tokens at the provider and drops them from the
// cache.
func (c *TokenCache) Logout(ctx context.Context, userID string) {
	c.mu.Lock()
	cached, ok := c.tokens[userID]
	if ok {
		delete(c.tokens, userID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	c.exchanger.Revoke(ctx, cached.accessToken)
	c.exchanger.Revoke(ctx, cached.refreshToken)
}

package oauth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
)

// fakeExchanger is a scriptable TokenExchanger for cache tests.
type fakeExchanger struct {
	mu           sync.Mutex
	refreshCalls int
	refreshSet   *oauth.TokenSet
	refreshErr   error
	revoked      []string
}

func (f *fakeExchanger) AuthorizationURL(state, challenge string) string {
	return "https://example.com/authorize?state=" + state + "&code_challenge=" + challenge
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code, verifier string) (*oauth.TokenSet, error) {
	return nil, oauth.NewAuthenticationError("not scripted")
}

func (f *fakeExchanger) Refresh(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshSet, nil
}

func (f *fakeExchanger) Revoke(ctx context.Context, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
}

func (f *fakeExchanger) refreshed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func TestTokenCache_ValidToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	exchanger := &fakeExchanger{}
	cache := oauth.NewTokenCache(exchanger,
		oauth.WithTokenCacheNowTime(func() time.Time { return now }))

	t.Run("unknown user", func(t *testing.T) {
		_, err := cache.ValidToken(context.Background(), "nobody")
		var authErr *oauth.AuthenticationError
		require.ErrorAs(t, err, &authErr)
	})

	cache.StoreTokens("user-1", &oauth.TokenSet{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
	})

	t.Run("fresh token needs no refresh", func(t *testing.T) {
		token, err := cache.ValidToken(context.Background(), "user-1")
		require.NoError(t, err)
		require.Equal(t, "access-1", token)
		require.Equal(t, 0, exchanger.refreshed())
	})

	t.Run("token within the buffer is refreshed", func(t *testing.T) {
		now = now.Add(56 * time.Minute)
		exchanger.refreshSet = &oauth.TokenSet{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresIn:    3600,
		}

		token, err := cache.ValidToken(context.Background(), "user-1")
		require.NoError(t, err)
		require.Equal(t, "access-2", token)
		require.Equal(t, 1, exchanger.refreshed())

		// The refreshed pair is cached for the next call.
		token, err = cache.ValidToken(context.Background(), "user-1")
		require.NoError(t, err)
		require.Equal(t, "access-2", token)
		require.Equal(t, 1, exchanger.refreshed())
	})

	t.Run("refresh failure propagates", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		exchanger.refreshErr = oauth.NewAuthenticationError("token refresh failed: invalid_grant")

		_, err := cache.ValidToken(context.Background(), "user-1")
		var authErr *oauth.AuthenticationError
		require.ErrorAs(t, err, &authErr)
	})
}

func TestTokenCache_UserInfo(t *testing.T) {
	cache := oauth.NewTokenCache(&fakeExchanger{})

	require.Nil(t, cache.UserInfo("nobody"))
	require.False(t, cache.IsAuthenticated("nobody"))

	cache.StoreTokens("user-1", &oauth.TokenSet{
		AccessToken: "access-1",
		ExpiresIn:   3600,
		UserGID:     "123",
		UserName:    "Jane",
		UserEmail:   "jane@example.com",
	})

	require.True(t, cache.IsAuthenticated("user-1"))
	info := cache.UserInfo("user-1")
	require.Equal(t, "123", info["user_gid"])
	require.Equal(t, "Jane", info["user_name"])
	require.Equal(t, "jane@example.com", info["user_email"])
}

func TestTokenCache_Logout(t *testing.T) {
	exchanger := &fakeExchanger{}
	cache := oauth.NewTokenCache(exchanger)

	cache.StoreTokens("user-1", &oauth.TokenSet{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
	})

	cache.Logout(context.Background(), "user-1")
	require.False(t, cache.IsAuthenticated("user-1"))
	require.ElementsMatch(t, []string{"access-1", "refresh-1"}, exchanger.revoked)

	// Logging out an unknown user is a no-op.
	cache.Logout(context.Background(), "user-1")
	require.Len(t, exchanger.revoked, 2)
}

package oauth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
)

func TestVerifierCache_SingleUse(t *testing.T) {
	cache := oauth.NewVerifierCache(oauth.DefaultVerifierTTL)
	defer cache.Stop()

	cache.Put("state-1", "verifier-1")

	verifier, ok := cache.Take("state-1")
	require.True(t, ok)
	require.Equal(t, "verifier-1", verifier)

	// Second take of the same state must fail.
	_, ok = cache.Take("state-1")
	require.False(t, ok)
}

func TestVerifierCache_UnknownState(t *testing.T) {
	cache := oauth.NewVerifierCache(oauth.DefaultVerifierTTL)
	defer cache.Stop()

	_, ok := cache.Take("never-put")
	require.False(t, ok)
}

func TestVerifierCache_ReplaceKeepsLatest(t *testing.T) {
	cache := oauth.NewVerifierCache(oauth.DefaultVerifierTTL)
	defer cache.Stop()

	cache.Put("state-1", "old")
	cache.Put("state-1", "new")

	verifier, ok := cache.Take("state-1")
	require.True(t, ok)
	require.Equal(t, "new", verifier)
	require.Equal(t, 0, cache.Len())
}

func TestVerifierCache_TTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := oauth.NewVerifierCache(10*time.Minute,
		oauth.WithVerifierNowTime(func() time.Time { return now }))
	defer cache.Stop()

	cache.Put("state-1", "verifier-1")

	t.Run("within the ttl", func(t *testing.T) {
		now = now.Add(9 * time.Minute)
		verifier, ok := cache.Take("state-1")
		require.True(t, ok)
		require.Equal(t, "verifier-1", verifier)
	})

	t.Run("past the ttl", func(t *testing.T) {
		cache.Put("state-2", "verifier-2")
		now = now.Add(11 * time.Minute)
		_, ok := cache.Take("state-2")
		require.False(t, ok)
	})
}

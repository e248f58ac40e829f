package tools

import (
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
	"github.com/MagicTurtle-s/asana-mcp-railway/auth"
	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
)

func newRequest(args map[string]interface{}) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = "asana_get_task"
	request.Params.Arguments = args
	return request
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer("test", nil, asana.NewRateLimiter(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "authService is required")
}

func TestErrorResult(t *testing.T) {
	textOf := func(result *mcp.CallToolResult) string {
		require.NotEmpty(t, result.Content)
		text, ok := mcp.AsTextContent(result.Content[0])
		require.True(t, ok)
		return text.Text
	}

	t.Run("session auth error carries re-auth guidance", func(t *testing.T) {
		request := newRequest(map[string]interface{}{"session_id": "abcdefgh12345678"})
		result := errorResult(request, oauth.NewAuthenticationError("session token expired, refresh required"))
		require.True(t, result.IsError)
		msg := textOf(result)
		require.Contains(t, msg, "Authentication required")
		require.Contains(t, msg, "/oauth/start?session=abcdefgh12345678")
	})

	t.Run("legacy auth error points at the plain start endpoint", func(t *testing.T) {
		request := newRequest(map[string]interface{}{})
		result := errorResult(request, oauth.NewAuthenticationError("session not authenticated"))
		msg := textOf(result)
		require.Contains(t, msg, "Please visit /oauth/start to authenticate.")
	})

	t.Run("reauth rate limit", func(t *testing.T) {
		result := errorResult(newRequest(nil), auth.ErrReauthRateLimited)
		require.Contains(t, textOf(result), "Too many authentication attempts")
	})

	t.Run("asana rate limit", func(t *testing.T) {
		result := errorResult(newRequest(nil), &asana.RateLimitError{RetryAfter: 0})
		require.Contains(t, textOf(result), "rate limit exceeded")
	})

	t.Run("other errors pass through", func(t *testing.T) {
		result := errorResult(newRequest(nil), errors.New("boom"))
		require.Equal(t, "boom", textOf(result))
	})
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"name":       "fix login",
		"completed":  true,
		"maxResults": float64(20),
	}

	require.Equal(t, "fix login", stringArg(args, "name"))
	require.Equal(t, "", stringArg(args, "missing"))

	completed, ok := boolArg(args, "completed")
	require.True(t, ok)
	require.True(t, completed)
	_, ok = boolArg(args, "missing")
	require.False(t, ok)

	require.Equal(t, 20, intArg(args, "maxResults", 50))
	require.Equal(t, 50, intArg(args, "missing", 50))
}

func TestShortID(t *testing.T) {
	require.Equal(t, "short", shortID("short"))
	require.Equal(t, "abcdefgh...", shortID("abcdefgh12345678"))
}

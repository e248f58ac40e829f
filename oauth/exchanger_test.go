package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
)

func testExchanger(t *testing.T, handler http.HandlerFunc) *oauth.Exchanger {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	exchanger := oauth.NewExchanger(oauth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/oauth/callback",
		AuthURL:      ts.URL + "/authorize",
		TokenURL:     ts.URL + "/token",
		RevokeURL:    ts.URL + "/revoke",
	})
	return exchanger
}

func writeTokenResponse(w http.ResponseWriter, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func TestExchanger_AuthorizationURL(t *testing.T) {
	exchanger := testExchanger(t, func(w http.ResponseWriter, r *http.Request) {})

	raw := exchanger.AuthorizationURL("the-state", "the-challenge")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, "client-id", query.Get("client_id"))
	require.Equal(t, "http://localhost:8080/oauth/callback", query.Get("redirect_uri"))
	require.Equal(t, "the-state", query.Get("state"))
	require.Equal(t, "the-challenge", query.Get("code_challenge"))
	require.Equal(t, "S256", query.Get("code_challenge_method"))
}

func TestExchanger_ExchangeCode(t *testing.T) {
	var gotVerifier, gotCode string
	exchanger := testExchanger(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotCode = r.FormValue("code")
		gotVerifier = r.FormValue("code_verifier")
		writeTokenResponse(w, map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
			"data": map[string]interface{}{
				"gid":   "12345",
				"name":  "Jane Doe",
				"email": "jane@example.com",
			},
		})
	})

	ts, err := exchanger.ExchangeCode(context.Background(), "auth-code", "the-verifier")
	require.NoError(t, err)

	require.Equal(t, "auth-code", gotCode)
	require.Equal(t, "the-verifier", gotVerifier)

	require.Equal(t, "access-1", ts.AccessToken)
	require.Equal(t, "refresh-1", ts.RefreshToken)
	require.EqualValues(t, 3600, ts.ExpiresIn)
	require.Equal(t, "12345", ts.UserGID)
	require.Equal(t, "Jane Doe", ts.UserName)
	require.Equal(t, "jane@example.com", ts.UserEmail)
}

func TestExchanger_ExchangeCodeProviderError(t *testing.T) {
	exchanger := testExchanger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Authorization code is invalid or expired",
		})
	})

	_, err := exchanger.ExchangeCode(context.Background(), "bad-code", "verifier")
	require.Error(t, err)

	var authErr *oauth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Contains(t, authErr.Description, "token exchange failed")
	require.Contains(t, authErr.Description, "Authorization code is invalid or expired")
}

func TestExchanger_RefreshKeepsPreviousRefreshToken(t *testing.T) {
	exchanger := testExchanger(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.FormValue("grant_type"))
		require.Equal(t, "old-refresh", r.FormValue("refresh_token"))
		// Asana does not always rotate the refresh token.
		writeTokenResponse(w, map[string]interface{}{
			"access_token": "access-2",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})

	ts, err := exchanger.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	require.Equal(t, "access-2", ts.AccessToken)
	require.Equal(t, "old-refresh", ts.RefreshToken)
}

func TestExchanger_RefreshFailureIsAuthenticationError(t *testing.T) {
	exchanger := testExchanger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid_grant",
		})
	})

	_, err := exchanger.Refresh(context.Background(), "revoked-refresh")
	require.Error(t, err)

	var authErr *oauth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Contains(t, authErr.Description, "token refresh failed")
}

func TestExchanger_RevokeIsBestEffort(t *testing.T) {
	var gotToken string
	exchanger := testExchanger(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotToken = r.FormValue("token")
		require.Equal(t, "client-id", r.FormValue("client_id"))
		w.WriteHeader(http.StatusInternalServerError) // provider failure is swallowed
	})

	exchanger.Revoke(context.Background(), "some-token")
	require.Equal(t, "some-token", gotToken)
}

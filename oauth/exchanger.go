package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Asana OAuth endpoints.
const (
	DefaultAuthURL   = "https://app.asana.com/-/oauth_authorize"
	DefaultTokenURL  = "https://app.asana.com/-/oauth_token"
	DefaultRevokeURL = "https://app.asana.com/-/oauth_revoke"

	// providerTimeout bounds every call to the token and revocation
	// endpoints so a stalled provider never blocks a tool call indefinitely.
	providerTimeout = 30 * time.Second
)

// TokenSet is the material returned by Asana's token endpoint. Asana piggybacks
// the authenticated user's identity on the token response.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
	UserGID      string
	UserName     string
	UserEmail    string
}

// TokenExchanger is the network boundary to Asana's OAuth endpoints.
type TokenExchanger interface {
	// AuthorizationURL builds the redirect URL for the authorization
	// endpoint. No network call is made.
	AuthorizationURL(state, challenge string) string

	// ExchangeCode trades an authorization code plus PKCE verifier for a
	// token set.
	ExchangeCode(ctx context.Context, code, verifier string) (*TokenSet, error)

	// Refresh trades a refresh token for a fresh token set. When Asana does
	// not rotate the refresh token, the previous one is carried over.
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)

	// Revoke invalidates a token at the provider. Best effort: failures are
	// swallowed, revocation is a courtesy.
	Revoke(ctx context.Context, token string)
}

// Config carries the registered Asana OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	RevokeURL    string
}

// Exchanger implements TokenExchanger against Asana using golang.org/x/oauth2.
type Exchanger struct {
	conf      *oauth2.Config
	revokeURL string
	httpc     *http.Client
	nowTime   func() time.Time
}

var _ TokenExchanger = (*Exchanger)(nil)

// ExchangerOption configures an Exchanger.
type ExchangerOption func(*Exchanger)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) ExchangerOption {
	return func(e *Exchanger) {
		e.httpc = c
	}
}

// WithExchangerNowTime sets the clock function (primarily for testing).
func WithExchangerNowTime(nowFunc func() time.Time) ExchangerOption {
	return func(e *Exchanger) {
		e.nowTime = nowFunc
	}
}

// NewExchanger creates a token exchanger for the given application
// credentials. Endpoint URLs default to Asana's production endpoints.
func NewExchanger(cfg Config, options ...ExchangerOption) *Exchanger {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = DefaultRevokeURL
	}

	e := &Exchanger{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		revokeURL: cfg.RevokeURL,
		httpc:     &http.Client{Timeout: providerTimeout},
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// AuthorizationURL builds the Asana authorization redirect with the S256
// PKCE challenge attached.
func (e *Exchanger) AuthorizationURL(state, challenge string) string {
	return e.conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades an authorization code for tokens, presenting the PKCE
// verifier generated at authorization start.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, verifier string) (*TokenSet, error) {
	tok, err := e.conf.Exchange(e.providerContext(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
	)
	if err != nil {
		return nil, normalizeProviderError("token exchange failed", err)
	}
	return e.tokenSet(tok, ""), nil
}

// Refresh trades a refresh token for a new token set.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	src := e.conf.TokenSource(e.providerContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, normalizeProviderError("token refresh failed", err)
	}
	return e.tokenSet(tok, refreshToken), nil
}

// Revoke posts the token to Asana's revocation endpoint. Failures are logged
// at debug level and never propagated.
func (e *Exchanger) Revoke(ctx context.Context, token string) {
	form := url.Values{
		"client_id":     {e.conf.ClientID},
		"client_secret": {e.conf.ClientSecret},
		"token":         {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpc.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("token revocation failed")
		return
	}
	resp.Body.Close()
}

// providerContext routes the oauth2 machinery through our timeout-bounded
// HTTP client.
func (e *Exchanger) providerContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpc)
}

// tokenSet converts an oauth2 token into a TokenSet, pulling the user
// identity out of the "data" extra that Asana includes in token responses.
// previousRefreshToken is carried over when the response omits rotation.
func (e *Exchanger) tokenSet(tok *oauth2.Token, previousRefreshToken string) *TokenSet {
	ts := &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tokenExpiresIn(tok, e.nowTime()),
		TokenType:    tok.TokenType,
	}
	if ts.RefreshToken == "" {
		ts.RefreshToken = previousRefreshToken
	}
	if data, ok := tok.Extra("data").(map[string]interface{}); ok {
		ts.UserGID, _ = data["gid"].(string)
		ts.UserName, _ = data["name"].(string)
		ts.UserEmail, _ = data["email"].(string)
	}
	return ts
}

// tokenExpiresIn recovers the expires_in value from a token response.
func tokenExpiresIn(tok *oauth2.Token, now time.Time) int64 {
	if v, ok := tok.Extra("expires_in").(float64); ok && v > 0 {
		return int64(v)
	}
	if !tok.Expiry.IsZero() {
		if d := tok.Expiry.Sub(now); d > 0 {
			return int64((d + time.Second/2) / time.Second)
		}
	}
	return 0
}

// normalizeProviderError converts any token-endpoint failure into an
// AuthenticationError, preferring the provider's error_description when the
// response carries one.
func normalizeProviderError(op string, err error) *AuthenticationError {
	desc := err.Error()
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch {
		case re.ErrorDescription != "":
			desc = re.ErrorDescription
		case re.ErrorCode != "":
			desc = re.ErrorCode
		case len(re.Body) > 0:
			desc = strings.TrimSpace(string(re.Body))
		}
	}
	return &AuthenticationError{
		Description: fmt.Sprintf("%s: %s", op, desc),
		Err:         err,
	}
}

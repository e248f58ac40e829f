package config

import (
	"fmt"
	"strconv"
)

const (
	clientIDVar     = "ASANA_CLIENT_ID"
	clientSecretVar = "ASANA_CLIENT_SECRET"
	redirectURIVar  = "ASANA_REDIRECT_URI"
)

type AsanaConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetAuthURL() string
	GetTokenURL() string
	GetRevokeURL() string
	GetAPIBaseURL() string
	GetRateLimitPerMinute() int
}

type Asana struct{}

var _ AsanaConfig = Asana{}

func (Asana) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

func (Asana) GetClientSecret() string {
	return GetEnv(clientSecretVar, "")
}

// GetRedirectURI falls back to <BASE_URL>/oauth/callback when the redirect
// URI is not configured explicitly.
func (a Asana) GetRedirectURI() string {
	if uri := GetEnv(redirectURIVar, ""); uri != "" {
		return uri
	}
	return fmt.Sprintf("%s/oauth/callback", EnvVars{}.GetBaseURL())
}

func (Asana) GetAuthURL() string {
	return GetEnv("ASANA_AUTH_URL", "https://app.asana.com/-/oauth_authorize")
}

func (Asana) GetTokenURL() string {
	return GetEnv("ASANA_TOKEN_URL", "https://app.asana.com/-/oauth_token")
}

func (Asana) GetRevokeURL() string {
	return GetEnv("ASANA_REVOKE_URL", "https://app.asana.com/-/oauth_revoke")
}

func (Asana) GetAPIBaseURL() string {
	return GetEnv("ASANA_API_BASE_URL", "https://app.asana.com/api/1.0")
}

// GetRateLimitPerMinute defaults to the free tier limit.
func (Asana) GetRateLimitPerMinute() int {
	raw := GetEnv("ASANA_RATE_LIMIT_PER_MINUTE", "150")
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 150
	}
	return limit
}

package oauth_test

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
)

func TestGeneratePKCE(t *testing.T) {
	verifier, challenge, err := oauth.GeneratePKCE()
	require.NoError(t, err)
	require.NotEmpty(t, verifier)
	require.NotEmpty(t, challenge)

	// Challenge must be the unpadded URL-safe base64 of SHA256(verifier).
	digest := sha256.Sum256([]byte(verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(digest[:]), challenge)

	// Verifier decodes to 32 bytes of entropy.
	raw, err := base64.RawURLEncoding.DecodeString(verifier)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

func TestGeneratePKCE_Unique(t *testing.T) {
	v1, c1, err := oauth.GeneratePKCE()
	require.NoError(t, err)
	v2, c2, err := oauth.GeneratePKCE()
	require.NoError(t, err)
	require.NotEqual(t, v1, v2)
	require.NotEqual(t, c1, c2)
}

func TestRandomState(t *testing.T) {
	s1, err := oauth.RandomState()
	require.NoError(t, err)
	s2, err := oauth.RandomState()
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)

	raw, err := base64.RawURLEncoding.DecodeString(s1)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

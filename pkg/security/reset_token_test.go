package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("")
	assert.Error(t, err)

	_, err = NewTokenIssuer("some-secret")
	assert.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	token, err := issuer.Issue("user@example.com", PurposeVerifyCode, 5*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", claims.Subject)
	assert.Equal(t, PurposeVerifyCode, claims.Purpose)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestTokenExpiryRejected(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	token, err := issuer.Issue("user@example.com", PurposeResetPassword, -time.Minute)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenTamperRejected(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	token, err := issuer.Issue("user@example.com", PurposeVerifyCode, 5*time.Minute)
	require.NoError(t, err)

	_, err = issuer.Verify(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer, err := NewTokenIssuer("secret-one")
	require.NoError(t, err)

	other, err := NewTokenIssuer("secret-two")
	require.NoError(t, err)

	token, err := issuer.Issue("user@example.com", PurposeVerifyCode, 5*time.Minute)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetnode/fleetnode/internal/auth"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := auth.NewTokenService(auth.TokenConfig{SigningKey: "test-key"})

	token, err := svc.Generate("ops@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	operator, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", operator)
}

func TestTokenService_RejectsWrongKey(t *testing.T) {
	issuer := auth.NewTokenService(auth.TokenConfig{SigningKey: "key-a"})
	verifier := auth.NewTokenService(auth.TokenConfig{SigningKey: "key-b"})

	token, err := issuer.Generate("ops@example.com")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := auth.NewTokenService(auth.TokenConfig{SigningKey: "test-key"})

	_, err := svc.Validate("not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

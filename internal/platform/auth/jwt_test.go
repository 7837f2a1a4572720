package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, RoleManager)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RoleManager, claims.Role)
}

func TestJWTManager_RejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Minute)
	verifier := NewJWTManager("secret-b", time.Minute)

	token, err := issuer.GenerateAccessToken(uuid.New(), RoleAdmin)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager("secret-a", -time.Minute)
	token, err = expired.GenerateAccessToken(uuid.New(), RoleAdmin)
	require.NoError(t, err)
	_, err = issuer.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/worklog-service/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	user := &domain.User{
		ID:           7,
		Username:     "mallory",
		Role:         domain.RoleManager,
		Capabilities: []domain.Capability{domain.CapabilityRead, domain.CapabilityCreate},
	}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "mallory", claims.Username)
	require.Equal(t, domain.RoleManager, claims.Role)
	require.Equal(t, user.Capabilities, claims.Capabilities)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 30)
	verifier := NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken(&domain.User{ID: 1, Username: "x", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	_, err := tm.ParseToken("not.a.token")
	require.Error(t, err)
}

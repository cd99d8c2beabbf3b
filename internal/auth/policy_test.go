package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/worklog-service/internal/domain"
)

func TestHasCapabilityAdminBypass(t *testing.T) {
	admin := &domain.User{Role: domain.RoleAdmin}
	require.True(t, HasCapability(admin, domain.CapabilityManageUsers))
	require.True(t, HasCapability(admin, domain.CapabilityDelete))
}

func TestHasCapabilityExplicitGrant(t *testing.T) {
	user := &domain.User{
		Role:         domain.RoleUser,
		Capabilities: []domain.Capability{domain.CapabilityRead, domain.CapabilityDelete},
	}
	require.True(t, HasCapability(user, domain.CapabilityDelete))
	require.False(t, HasCapability(user, domain.CapabilityManageUsers))
}

func TestHasCapabilityNilUser(t *testing.T) {
	require.False(t, HasCapability(nil, domain.CapabilityRead))
}

func TestManagerialGates(t *testing.T) {
	cases := []struct {
		role    domain.Role
		allowed bool
	}{
		{domain.RoleAdmin, true},
		{domain.RoleManager, true},
		{domain.RoleUser, false},
		{domain.RoleViewer, false},
	}
	for _, tc := range cases {
		user := &domain.User{Role: tc.role}
		require.Equal(t, tc.allowed, CanViewDeleted(user), "CanViewDeleted role %s", tc.role)
		require.Equal(t, tc.allowed, CanRestore(user), "CanRestore role %s", tc.role)
		require.Equal(t, tc.allowed, CanViewHistory(user), "CanViewHistory role %s", tc.role)
		require.Equal(t, tc.allowed, CanManageSettings(user), "CanManageSettings role %s", tc.role)
	}
}

// A user-role account holding the delete capability may delete records but
// still cannot restore them; restore follows role, not capability.
func TestDeleteCapabilityDoesNotImplyRestore(t *testing.T) {
	alice := &domain.User{
		Role:         domain.RoleUser,
		Capabilities: []domain.Capability{domain.CapabilityRead, domain.CapabilityDelete},
	}
	require.True(t, HasCapability(alice, domain.CapabilityDelete))
	require.False(t, CanRestore(alice))
	require.False(t, CanViewDeleted(alice))
}

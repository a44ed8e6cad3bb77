package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionLoginLogout(t *testing.T) {
	s := NewSession("admin", "1234")
	require.False(t, s.Authenticated())

	require.ErrorIs(t, s.Login("admin", "wrong"), ErrInvalidCredentials)
	require.ErrorIs(t, s.Login("root", "1234"), ErrInvalidCredentials)
	require.False(t, s.Authenticated())

	require.NoError(t, s.Login("admin", "1234"))
	require.True(t, s.Authenticated())

	s.Logout()
	require.False(t, s.Authenticated())
}

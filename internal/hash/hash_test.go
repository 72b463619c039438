package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("password")
	require.NoError(t, err)
	require.NotEqual(t, "password", h)

	require.True(t, CheckPassword(h, "password"))
	require.False(t, CheckPassword(h, "wrong_password"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := HashPassword("password")
	require.NoError(t, err)
	second, err := HashPassword("password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, CheckPassword(first, "password"))
	require.True(t, CheckPassword(second, "password"))
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	require.False(t, CheckPassword("", "password"))
	require.False(t, CheckPassword("not-a-bcrypt-hash", "password"))
}

package helper_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SundayYogurt/account_service/internal/helper"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	salt, err := helper.GenerateSalt()
	require.NoError(t, err)

	hash := helper.HashPassword("s3cret-pass", salt)
	require.NotEmpty(t, hash)

	require.True(t, helper.VerifyPassword("s3cret-pass", salt, hash))
	require.False(t, helper.VerifyPassword("wrong-pass", salt, hash))
}

func TestHashPassword_SaltMatters(t *testing.T) {
	salt1, err := helper.GenerateSalt()
	require.NoError(t, err)
	salt2, err := helper.GenerateSalt()
	require.NoError(t, err)
	require.NotEqual(t, salt1, salt2)

	h1 := helper.HashPassword("same-password", salt1)
	h2 := helper.HashPassword("same-password", salt2)
	require.NotEqual(t, h1, h2)
}

func TestGenerateSalt_HexEncoded(t *testing.T) {
	salt, err := helper.GenerateSalt()
	require.NoError(t, err)

	raw, err := hex.DecodeString(salt)
	require.NoError(t, err)
	require.Len(t, raw, 16)
}

func TestHashPassword_Deterministic(t *testing.T) {
	salt, err := helper.GenerateSalt()
	require.NoError(t, err)

	require.Equal(t,
		helper.HashPassword("pw", salt),
		helper.HashPassword("pw", salt),
	)
}

func TestBurnVerify_DoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		helper.BurnVerify("anything")
		helper.BurnVerify("")
	})
}

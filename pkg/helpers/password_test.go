package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	assert.True(t, VerifyPassword(hash, "correct-horse"))
	assert.False(t, VerifyPassword(hash, "wrong-horse"))
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same-password")
	require.NoError(t, err)
	h2, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword(h1, "same-password"))
	assert.True(t, VerifyPassword(h2, "same-password"))
}

func TestVerifyPassword_LongPasswords(t *testing.T) {
	// No 72-byte limit: passwords longer than that must round-trip,
	// including multi-byte characters straddling that boundary.
	long := strings.Repeat("pässwörd-", 20)
	require.Greater(t, len(long), 72)

	hash, err := HashPassword(long)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, long))
	assert.False(t, VerifyPassword(hash, long[:72]))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("", "anything"))
	assert.False(t, VerifyPassword("$2a$10$legacybcrypthash", "anything"))
	assert.False(t, VerifyPassword("$argon2id$v=19$m=65536,t=1,p=4$notbase64!$alsonot!", "anything"))
}

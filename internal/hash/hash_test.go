package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	encoded, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	assert.True(t, CheckPassword(encoded, "correct horse battery staple"))
	assert.False(t, CheckPassword(encoded, "wrong password"))
	assert.False(t, CheckPassword(encoded, ""))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPassword("password")
	require.NoError(t, err)
	b, err := HashPassword("password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("", "password"))
	assert.False(t, CheckPassword("$bcrypt$whatever", "password"))
	assert.False(t, CheckPassword("$argon2id$v=19$m=65536,t=1,p=4$notbase64!$alsonot!", "password"))
}

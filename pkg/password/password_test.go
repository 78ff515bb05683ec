package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var cheap = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashWithParams("correct horse", cheap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := Verify(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(hash, "wrong horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	a, err := HashWithParams("same-password", cheap)
	require.NoError(t, err)
	b, err := HashWithParams("same-password", cheap)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := HashWithParams("", cheap)
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerifyAcceptsBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := Verify(string(legacy), "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(string(legacy), "admin124")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tests := []string{
		"",
		"5f4dcc3b5aa765d61d8327deb882cf99",
		"$argon2id$v=19$m=1024$bad",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
	}

	for _, encoded := range tests {
		ok, err := Verify(encoded, "password")
		assert.Error(t, err, encoded)
		assert.False(t, ok)
	}
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testPasswordParams = PasswordParams{Time: 1, MemoryKB: 8 * 1024, Threads: 1}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(testPasswordParams)

	hash, err := h.Hash("test-password")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=8192,t=1,p=1$")

	assert.True(t, h.Verify("test-password", hash))
	assert.False(t, h.Verify("test-passwore", hash))
	assert.False(t, h.Verify("", hash))
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(testPasswordParams)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestPasswordHasher_VerifiesWithStoredParams(t *testing.T) {
	old := NewPasswordHasher(PasswordParams{Time: 2, MemoryKB: 4 * 1024, Threads: 2})
	hash, err := old.Hash("test-password")
	require.NoError(t, err)

	assert.True(t, NewPasswordHasher(testPasswordParams).Verify("test-password", hash))
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(testPasswordParams)

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "plain text", hash: "test-password"},
		{name: "too few parts", hash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA"},
		{name: "wrong algorithm", hash: "$argon2i$v=19$m=8192,t=1,p=1$c29tZXNhbHRzb21lc2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "wrong version", hash: "$argon2id$v=16$m=8192,t=1,p=1$c29tZXNhbHRzb21lc2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "zero time", hash: "$argon2id$v=19$m=8192,t=0,p=1$c29tZXNhbHRzb21lc2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "zero threads", hash: "$argon2id$v=19$m=8192,t=1,p=0$c29tZXNhbHRzb21lc2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "thread overflow", hash: "$argon2id$v=19$m=8192,t=1,p=300$c29tZXNhbHRzb21lc2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "bad params", hash: "$argon2id$v=19$m=x,t=1,p=1$c29tZXNhbHRzb21lc2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "bad salt", hash: "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "short key", hash: "$argon2id$v=19$m=8192,t=1,p=1$c29tZXNhbHRzb21lc2FsdA$aGFzaA"},
		{name: "huge memory", hash: "$argon2id$v=19$m=4294967295,t=1,p=1$c29tZXNhbHRzb21lc2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{name: "broken bcrypt", hash: "$2b$10$short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("test-password", tt.hash))
			})
		})
	}
}

func TestPasswordHasher_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("test-password"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewPasswordHasher(testPasswordParams)
	assert.True(t, h.Verify("test-password", string(legacy)))
	assert.False(t, h.Verify("wrong-password", string(legacy)))
}

func TestNewPasswordHasher_Defaults(t *testing.T) {
	h := NewPasswordHasher(PasswordParams{})
	assert.Equal(t, DefaultPasswordParams, h.params)
}

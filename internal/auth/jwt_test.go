package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

// whole seconds: NumericDate drops sub-second precision
var testNow = time.Unix(1_700_000_000, 0)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	s, err := NewJWTService(testSecret, 24*time.Hour)
	require.NoError(t, err)
	return s
}

func TestJWTService_RoundTrip(t *testing.T) {
	s := newTestJWTService(t)

	token, err := s.CreateToken(42, testNow)
	require.NoError(t, err)

	for _, delta := range []time.Duration{0, time.Minute, 23 * time.Hour, 24*time.Hour - time.Second} {
		userID, err := s.VerifyToken(token, testNow.Add(delta))
		require.NoError(t, err, "delta %s", delta)
		assert.Equal(t, int64(42), userID)
	}
}

func TestJWTService_Expired(t *testing.T) {
	s := newTestJWTService(t)

	token, err := s.CreateToken(42, testNow)
	require.NoError(t, err)

	for _, delta := range []time.Duration{24 * time.Hour, 25 * time.Hour, 30 * 24 * time.Hour} {
		_, err := s.VerifyToken(token, testNow.Add(delta))
		assert.ErrorIs(t, err, ErrExpiredToken, "delta %s", delta)
	}
}

func TestJWTService_TamperedSignature(t *testing.T) {
	s := newTestJWTService(t)

	token, err := s.CreateToken(42, testNow)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = s.VerifyToken(tampered, testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	other, err := NewJWTService("another-secret", 24*time.Hour)
	require.NoError(t, err)

	token, err := other.CreateToken(42, testNow)
	require.NoError(t, err)

	_, err = newTestJWTService(t).VerifyToken(token, testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsForeignAlgorithms(t *testing.T) {
	s := newTestJWTService(t)
	claims := jwtClaims{
		UserID:           42,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.VerifyToken(hs512, testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.VerifyToken(none, testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_MalformedAndMissingClaims(t *testing.T) {
	s := newTestJWTService(t)

	_, err := s.VerifyToken("not-a-token", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// no exp claim
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{UserID: 42}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.VerifyToken(noExp, testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// no user id
	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.VerifyToken(noID, testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTService_Validation(t *testing.T) {
	_, err := NewJWTService("", time.Hour)
	assert.Error(t, err)

	_, err = NewJWTService(testSecret, 0)
	assert.Error(t, err)
}

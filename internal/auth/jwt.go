package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// jwtClaims is the token payload: {"id": <user id>, "exp": ..., "iat": ...}.
type jwtClaims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HS256 tokens.
type JWTService struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewJWTService(secretKey string, maxAge time.Duration) (*JWTService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key must not be empty")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("token max age must be positive, got %s", maxAge)
	}

	return &JWTService{secretKey: []byte(secretKey), maxAge: maxAge}, nil
}

// CreateToken issues a token for userID that expires maxAge after now.
func (s *JWTService) CreateToken(userID int64, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	})

	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken checks the signature and expiry as of now and returns the user id.
// Only HS256 is accepted.
func (s *JWTService) VerifyToken(tokenStr string, now time.Time) (int64, error) {
	claims := &jwtClaims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) {
			return s.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}

	if claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

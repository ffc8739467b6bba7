package auth

import (
	"fmt"
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"
)

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	maxAge       time.Duration
}

func NewPasetoService(symmetricKey []byte, maxAge time.Duration) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("token max age must be positive, got %s", maxAge)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		maxAge:       maxAge,
	}, nil
}

// CreateToken generates a new PASETO v4.local token for userID
func (s *PasetoService) CreateToken(userID int64, now time.Time) (string, error) {
	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.maxAge))
	token.SetString("user_id", strconv.FormatInt(userID, 10))

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken decrypts a PASETO v4.local token and checks its expiry against now
func (s *PasetoService) VerifyToken(tokenStr string, now time.Time) (int64, error) {
	// Expiry is checked below against the caller's clock.
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return 0, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !now.Before(expiresAt) {
		return 0, ErrExpiredToken
	}

	raw, err := token.GetString("user_id")
	if err != nil {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

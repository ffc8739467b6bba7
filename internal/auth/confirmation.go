package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoChallenge  = errors.New("no confirmation code is pending")
	ErrCodeMismatch = errors.New("confirmation code does not match")
)

const confirmationCodeBytes = 3 // six hex characters

// ConfirmationKey is the store key for a user's pending phone confirmation.
func ConfirmationKey(userID int64) string {
	return fmt.Sprintf("phone_confirm:%d", userID)
}

// Confirmations issues single-use codes and checks them.
// A ttl of zero keeps codes until they are used or replaced.
type Confirmations struct {
	store ConfirmationStore
	ttl   time.Duration
}

func NewConfirmations(store ConfirmationStore, ttl time.Duration) *Confirmations {
	return &Confirmations{store: store, ttl: ttl}
}

// Issue stores a fresh code under key, replacing any pending one.
func (c *Confirmations) Issue(ctx context.Context, key string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	if err := c.store.Set(ctx, key, code, c.ttl); err != nil {
		return "", fmt.Errorf("failed to store confirmation code: %w", err)
	}

	return code, nil
}

// Verify consumes the pending code when it equals code. A wrong code leaves
// the pending one in place.
func (c *Confirmations) Verify(ctx context.Context, key, code string) error {
	pending, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNoChallenge) {
			return ErrNoChallenge
		}
		return fmt.Errorf("failed to load confirmation code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(pending), []byte(code)) != 1 {
		return ErrCodeMismatch
	}

	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to consume confirmation code: %w", err)
	}

	return nil
}

// Discard drops any pending code under key.
func (c *Confirmations) Discard(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to discard confirmation code: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	b := make([]byte, confirmationCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package auth

import (
	"context"
	"time"

	"github.com/redmonkez12/todos-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID int64, now time.Time) (string, error)
	VerifyToken(tokenStr string, now time.Time) (int64, error)
}

// ConfirmationStore keeps pending confirmation codes by key.
// Get returns ErrNoChallenge when nothing is pending.
type ConfirmationStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, code string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CodeSender delivers confirmation codes out of band.
type CodeSender interface {
	SendConfirmationCode(ctx context.Context, to, code string) error
}

// UserRepository is the subset of user.Repository the service needs.
type UserRepository interface {
	Create(ctx context.Context, phoneNumber, passwordHash string, confirmed bool) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*user.User, error)
	ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error)
	UpdatePhoneNumber(ctx context.Context, userID int64, phoneNumber string, confirmed bool) error
	MarkPhoneNumberConfirmed(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	Deactivate(ctx context.Context, userID int64) error
}

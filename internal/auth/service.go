package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/redmonkez12/todos-api/internal/logging"
	"github.com/redmonkez12/todos-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrPasswordLength     = errors.New("password must be between 6 and 255 characters")
	ErrPasswordMismatch   = errors.New("passwords must match")
	ErrAlreadyConfirmed   = errors.New("phone number is already confirmed")
	ErrNotConfirmed       = errors.New("phone number is not confirmed")
)

var phoneNumberPattern = regexp.MustCompile(`^\+?\d\d{9,15}$`)

const (
	minPasswordLen = 6
	maxPasswordLen = 255

	smsTimeout = 30 * time.Second
)

// AuthToken is returned by Login.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service handles authentication business logic
type Service struct {
	users             UserRepository
	hasher            *PasswordHasher
	tokens            TokenService
	confirmations     *Confirmations
	sender            CodeSender
	logger            *logging.Logger
	confirmOnRegister bool
	now               func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(
	users UserRepository,
	hasher *PasswordHasher,
	tokens TokenService,
	confirmations *Confirmations,
	sender CodeSender,
	logger *logging.Logger,
	confirmOnRegister bool,
) *Service {
	return &Service{
		users:             users,
		hasher:            hasher,
		tokens:            tokens,
		confirmations:     confirmations,
		sender:            sender,
		logger:            logger,
		confirmOnRegister: confirmOnRegister,
		now:               time.Now,
	}
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, phoneNumber, password string) (*user.User, error) {
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if err := s.ensurePhoneNumberFree(ctx, phoneNumber); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// the store's unique constraint covers a concurrent registration
	newUser, err := s.users.Create(ctx, phoneNumber, passwordHash, s.confirmOnRegister)
	if err != nil {
		if errors.Is(err, user.ErrDuplicatePhoneNumber) {
			return nil, user.ErrDuplicatePhoneNumber
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates an active user and returns a bearer token.
// Unknown numbers, inactive users and wrong passwords all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, phoneNumber, password string) (*AuthToken, error) {
	existingUser, err := s.users.GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Verify(password, s.dummyPasswordHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existingUser.PasswordHash) || !existingUser.IsActive {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existingUser.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &AuthToken{AccessToken: token, TokenType: "bearer"}, nil
}

// ResolveIdentity returns the active user a token was issued for.
func (s *Service) ResolveIdentity(ctx context.Context, token string, now time.Time) (*user.User, error) {
	userID, err := s.tokens.VerifyToken(token, now)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !u.IsActive {
		return nil, ErrInvalidToken
	}

	return u, nil
}

// UpdateProfile changes the phone number. A new number is unconfirmed and
// any pending confirmation code is dropped.
func (s *Service) UpdateProfile(ctx context.Context, u *user.User, phoneNumber string) (*user.User, error) {
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}

	if phoneNumber == u.PhoneNumber {
		return u, nil
	}

	if err := s.ensurePhoneNumberFree(ctx, phoneNumber); err != nil {
		return nil, err
	}

	if err := s.users.UpdatePhoneNumber(ctx, u.ID, phoneNumber, false); err != nil {
		if errors.Is(err, user.ErrDuplicatePhoneNumber) {
			return nil, user.ErrDuplicatePhoneNumber
		}
		return nil, fmt.Errorf("failed to update phone number: %w", err)
	}

	if err := s.confirmations.Discard(ctx, ConfirmationKey(u.ID)); err != nil {
		logging.GetLoggerFromContext(ctx).Warn("failed to discard pending confirmation code",
			"user_id", u.ID, "error", err)
	}

	updated, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return updated, nil
}

// AskPhoneConfirmation issues a code and sends it by SMS in the background.
func (s *Service) AskPhoneConfirmation(ctx context.Context, u *user.User) error {
	if u.PhoneNumberIsConfirmed {
		return ErrAlreadyConfirmed
	}

	code, err := s.confirmations.Issue(ctx, ConfirmationKey(u.ID))
	if err != nil {
		return err
	}

	logger := logging.GetLoggerFromContext(ctx)
	phoneNumber := u.PhoneNumber
	userID := u.ID

	// Send the SMS in a goroutine (non-blocking); the request may be gone by then
	go func() {
		smsCtx, cancel := context.WithTimeout(context.Background(), smsTimeout)
		defer cancel()

		if err := s.sender.SendConfirmationCode(smsCtx, phoneNumber, code); err != nil {
			logger.Warn("failed to send confirmation code", "user_id", userID, "error", err)
		}
	}()

	return nil
}

// ConfirmPhoneNumber checks code against the pending one and marks the
// phone number confirmed.
func (s *Service) ConfirmPhoneNumber(ctx context.Context, u *user.User, code string) error {
	if u.PhoneNumberIsConfirmed {
		return ErrAlreadyConfirmed
	}

	if err := s.confirmations.Verify(ctx, ConfirmationKey(u.ID), code); err != nil {
		return err
	}

	if err := s.users.MarkPhoneNumberConfirmed(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to confirm phone number: %w", err)
	}

	return nil
}

// ChangePassword replaces the password after checking both entries match
func (s *Service) ChangePassword(ctx context.Context, u *user.User, newPassword, newPasswordConfirm string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if newPassword != newPasswordConfirm {
		return ErrPasswordMismatch
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// Deactivate permanently disables the account once the password is confirmed
func (s *Service) Deactivate(ctx context.Context, u *user.User, password string) error {
	if !s.hasher.Verify(password, u.PasswordHash) {
		return ErrInvalidPassword
	}

	if err := s.users.Deactivate(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	return nil
}

func (s *Service) ensurePhoneNumberFree(ctx context.Context, phoneNumber string) error {
	exists, err := s.users.ExistsByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		return fmt.Errorf("failed to check phone number: %w", err)
	}
	if exists {
		return user.ErrDuplicatePhoneNumber
	}
	return nil
}

// dummyPasswordHash is verified against for unknown phone numbers so that
// login takes about as long either way.
func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password")
		if err != nil {
			s.logger.Warn("failed to build dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func validatePhoneNumber(phoneNumber string) error {
	if !phoneNumberPattern.MatchString(phoneNumber) {
		return ErrInvalidPhoneNumber
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return ErrPasswordLength
	}
	return nil
}

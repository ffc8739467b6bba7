package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/todos-api/internal/database"
)

var (
	ErrNotFound             = errors.New("user not found")
	ErrDuplicatePhoneNumber = errors.New("phone number already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new active user into the database
func (r *Repository) Create(ctx context.Context, phoneNumber, passwordHash string, confirmed bool) (*User, error) {
	now := time.Now().UTC()
	dbUser := &database.User{
		PhoneNumber:            phoneNumber,
		PasswordHash:           passwordHash,
		IsActive:               true,
		PhoneNumberIsConfirmed: confirmed,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicatePhoneNumber
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByPhoneNumber retrieves a user by phone number, active or not
func (r *Repository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("phone_number = ?", phoneNumber).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by phone number: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// ExistsByPhoneNumber reports whether any user, including deactivated ones,
// holds the phone number
func (r *Repository) ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("phone_number = ?", phoneNumber).
		Exists(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check phone number: %w", err)
	}

	return exists, nil
}

// UpdatePhoneNumber stores a new phone number together with its confirmation state
func (r *Repository) UpdatePhoneNumber(ctx context.Context, userID int64, phoneNumber string, confirmed bool) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("phone_number = ?", phoneNumber).
		Set("phone_number_is_confirmed = ?", confirmed).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicatePhoneNumber
		}
		return fmt.Errorf("failed to update phone number: %w", err)
	}

	return checkAffected(result)
}

// MarkPhoneNumberConfirmed marks a user's phone number as confirmed
func (r *Repository) MarkPhoneNumberConfirmed(ctx context.Context, userID int64) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("phone_number_is_confirmed = ?", true).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to confirm phone number: %w", err)
	}

	return checkAffected(result)
}

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return checkAffected(result)
}

// Deactivate clears is_active. There is no way back.
func (r *Repository) Deactivate(ctx context.Context, userID int64) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                     dbu.ID,
		PhoneNumber:            dbu.PhoneNumber,
		PasswordHash:           dbu.PasswordHash,
		IsActive:               dbu.IsActive,
		PhoneNumberIsConfirmed: dbu.PhoneNumberIsConfirmed,
		CreatedAt:              dbu.CreatedAt,
		UpdatedAt:              dbu.UpdatedAt,
	}
}

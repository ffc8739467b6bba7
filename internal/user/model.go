package user

import (
	"time"
)

type User struct {
	ID                     int64     `json:"id"`
	PhoneNumber            string    `json:"phone_number"`
	PasswordHash           string    `json:"-"` // Never expose password hash in JSON
	IsActive               bool      `json:"is_active"`
	PhoneNumberIsConfirmed bool      `json:"phone_number_is_confirmed"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

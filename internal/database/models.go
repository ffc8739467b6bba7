package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the persisted row of the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                     int64     `bun:"id,pk,autoincrement"`
	PhoneNumber            string    `bun:"phone_number,notnull,unique"`
	PasswordHash           string    `bun:"password_hash,notnull"`
	IsActive               bool      `bun:"is_active,notnull"`
	PhoneNumberIsConfirmed bool      `bun:"phone_number_is_confirmed,notnull"`
	CreatedAt              time.Time `bun:"created_at,notnull"`
	UpdatedAt              time.Time `bun:"updated_at,notnull"`
}

// Todo is the persisted row of the todos table.
type Todo struct {
	bun.BaseModel `bun:"table:todos,alias:t"`

	ID            int64     `bun:"id,pk,autoincrement"`
	OwnerID       int64     `bun:"owner_id,notnull"`
	Title         string    `bun:"title,notnull"`
	Text          string    `bun:"text,notnull"`
	ImageFilename *string   `bun:"image_filename"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

package todo

import (
	"time"
)

// Todo is a to-do item owned by one user.
type Todo struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"-"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	ImageFilename *string   `json:"image_filename"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicatePhone is returned when creating a user with a phone number that
// is already registered.
var ErrDuplicatePhone = errors.New("phone number already in use")

// User represents a registered user, identified by phone number.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(phone, name string, createdAt, updatedAt time.Time) *User {
	return &User{
		Phone:     phone,
		Name:      name,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
}

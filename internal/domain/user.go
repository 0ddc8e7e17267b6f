package domain

import (
	"context"
	"time"
)

// Role controls which operations a user may perform
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User is a staff member who can log in to the dashboard
type User struct {
	ID           int64      `json:"user_id" db:"user_id"`
	Username     string     `json:"username" db:"username" validate:"required,min=3,max=100"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"full_name" db:"full_name" validate:"required,min=1,max=255"`
	Role         Role       `json:"role" db:"role"`
	Email        *string    `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user with an already-hashed password
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves an active user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List retrieves all users without password hashes
	List(ctx context.Context) ([]*User, error)

	// UpdateLastLogin records a successful login timestamp
	UpdateLastLogin(ctx context.Context, id int64) error
}

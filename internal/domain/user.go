package domain

import (
	"context"
	"time"
)

// Role is the capability level of a user. Only an operator changes it.
type Role string

const (
	RoleReader Role = "reader"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleReader || r == RoleAdmin
}

// User represents a registered user of the site.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether the user may author posts.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// SetRole changes the role of the user with the given email.
	SetRole(ctx context.Context, email string, role Role) error
	List(ctx context.Context) ([]User, error)
}

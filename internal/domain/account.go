package domain

import (
	"context"
	"time"
)

// Role is the access level of an account. The only privileged role is admin.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile holds the free-form fields of an account document (name, address,
// whatever the client sent at signup). Stored as JSONB.
type Profile map[string]any

// Account represents a stored user account
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	SessionToken string    `json:"-"` // most recently issued token, kept on the record
	Profile      Profile   `json:"profile,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account carries the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id string) error
	UpdateSessionToken(ctx context.Context, id, token string) error
}

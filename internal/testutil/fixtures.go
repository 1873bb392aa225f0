package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"accounts-api/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// AccountOptions allows customizing account fixture creation
type AccountOptions struct {
	ID           string
	Email        string
	PasswordHash string
	Role         domain.Role
	SessionToken string
	Profile      domain.Profile
	CreatedAt    time.Time
}

// NewTestAccount creates a test account with sensible defaults
// Pass options to override specific fields
func NewTestAccount(opts ...func(*AccountOptions)) *domain.Account {
	o := &AccountOptions{
		ID:           nextID("account"),
		PasswordHash: "$2a$12$test.hash.for.testing.purposes.only", // bcrypt hash placeholder
		Role:         domain.RoleUser,
	}

	for _, opt := range opts {
		opt(o)
	}

	// Derive an email from the ID if not provided
	if o.Email == "" {
		o.Email = o.ID + "@example.com"
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return &domain.Account{
		ID:           o.ID,
		Email:        o.Email,
		PasswordHash: o.PasswordHash,
		Role:         o.Role,
		SessionToken: o.SessionToken,
		Profile:      o.Profile,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.CreatedAt,
	}
}

// Account option functions

// WithAccountID sets the account ID
func WithAccountID(id string) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.ID = id
	}
}

// WithEmail sets the email
func WithEmail(email string) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.Email = email
	}
}

// WithPasswordHash sets the password hash
func WithPasswordHash(hash string) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.PasswordHash = hash
	}
}

// WithRole sets the account role
func WithRole(role domain.Role) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.Role = role
	}
}

// WithAdmin marks the account as an admin
func WithAdmin() func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.Role = domain.RoleAdmin
	}
}

// WithSessionToken sets the persisted session token
func WithSessionToken(token string) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.SessionToken = token
	}
}

// WithProfile sets the free-form profile fields
func WithProfile(profile domain.Profile) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.Profile = profile
	}
}

// WithAccountCreatedAt sets the account creation time
func WithAccountCreatedAt(t time.Time) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.CreatedAt = t
	}
}

// Batch creation helpers

// NewTestAccounts creates multiple test accounts
func NewTestAccounts(count int) []*domain.Account {
	accounts := make([]*domain.Account, count)
	for i := 0; i < count; i++ {
		accounts[i] = NewTestAccount()
	}
	return accounts
}

// ResetIDCounter resets the ID counter (useful for deterministic tests)
func ResetIDCounter() {
	idCounter.Store(0)
}

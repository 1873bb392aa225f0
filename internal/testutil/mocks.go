// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the accounts API.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"accounts-api/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockNotFound       = errors.New("mock: not found")
)

// MockAccountRepository implements domain.AccountRepository for testing
type MockAccountRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc             func(ctx context.Context, account *domain.Account) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Account, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*domain.Account, error)
	ListFunc               func(ctx context.Context) ([]*domain.Account, error)
	UpdateFunc             func(ctx context.Context, account *domain.Account) error
	DeleteFunc             func(ctx context.Context, id string) error
	UpdateSessionTokenFunc func(ctx context.Context, id, token string) error

	// In-memory storage for simple tests
	Accounts map[string]*domain.Account
}

// NewMockAccountRepository creates a new MockAccountRepository with initialized maps
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Accounts == nil {
		m.Accounts = make(map[string]*domain.Account)
	}

	// Check for duplicates
	for _, a := range m.Accounts {
		if a.Email == account.Email {
			return domain.ErrEmailExists
		}
	}

	if account.ID == "" {
		account.ID = "account-" + account.Email
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}
	m.Accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if account, ok := m.Accounts[id]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, account := range m.Accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Account, 0, len(m.Accounts))
	for _, account := range m.Accounts {
		result = append(result, account)
	}
	return result, nil
}

func (m *MockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	account.UpdatedAt = time.Now()
	m.Accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(m.Accounts, id)
	return nil
}

func (m *MockAccountRepository) UpdateSessionToken(ctx context.Context, id, token string) error {
	if m.UpdateSessionTokenFunc != nil {
		return m.UpdateSessionTokenFunc(ctx, id, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.Accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.SessionToken = token
	return nil
}

// MockTokenVerifier implements middleware.TokenVerifier for testing
type MockTokenVerifier struct {
	// Function override
	VerifyFunc func(token string) (string, error)

	// Token -> subject ID mapping for simple tests
	Subjects map[string]string
}

// NewMockTokenVerifier creates a new MockTokenVerifier with initialized maps
func NewMockTokenVerifier() *MockTokenVerifier {
	return &MockTokenVerifier{
		Subjects: make(map[string]string),
	}
}

func (m *MockTokenVerifier) Verify(token string) (string, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	if subjectID, ok := m.Subjects[token]; ok {
		return subjectID, nil
	}
	return "", ErrMockNotFound
}

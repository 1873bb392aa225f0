package service

import (
	"context"
	"regexp"

	"accounts-api/internal/domain"
	"accounts-api/internal/observability"
	"accounts-api/internal/security"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 6

// AccountService implements signup, signin and account CRUD on top of the
// account repository. Issued session tokens are persisted on the account row
// so the most recent token is always visible alongside the account.
type AccountService struct {
	accounts domain.AccountRepository
	tokens   *security.TokenService
	csrf     *security.CSRFManager
}

func NewAccountService(accounts domain.AccountRepository, tokens *security.TokenService, csrf *security.CSRFManager) *AccountService {
	return &AccountService{
		accounts: accounts,
		tokens:   tokens,
		csrf:     csrf,
	}
}

// Session carries the credentials minted for a signed-in account.
type Session struct {
	Token     string
	CSRFToken string
}

// SignUp validates the credentials, creates the account and signs it in.
func (s *AccountService) SignUp(ctx context.Context, email, password string, profile domain.Profile) (*domain.Account, *Session, error) {
	if err := validateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, nil, err
	}

	account := &domain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
		Profile:      profile,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, nil, err
	}

	session, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	return account, session, nil
}

// SignIn verifies the credentials and mints a fresh session.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*domain.Account, *Session, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			return nil, nil, domain.ErrEmailNotFound
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(account.PasswordHash), []byte(password),
	); err != nil {
		return nil, nil, domain.ErrWrongPassword
	}

	session, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	return account, session, nil
}

// GetAccount retrieves a single account by ID
func (s *AccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// ListAccounts retrieves all accounts
func (s *AccountService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.List(ctx)
}

// UpdateAccount applies the given changes to an account. Email and password
// changes are revalidated, passwords rehashed. Remaining fields are merged
// into the profile document.
func (s *AccountService) UpdateAccount(ctx context.Context, id, email, password string, profile domain.Profile) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		account.Email = email
	}

	if password != "" {
		if err := validatePassword(password); err != nil {
			return nil, err
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = string(hashedPassword)
	}

	if len(profile) > 0 {
		if account.Profile == nil {
			account.Profile = domain.Profile{}
		}
		for key, value := range profile {
			account.Profile[key] = value
		}
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// DeleteAccount removes an account by ID
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	return s.accounts.Delete(ctx, id)
}

// issueSession mints a signed token plus CSRF token and records the session
// token on the account row.
func (s *AccountService) issueSession(ctx context.Context, account *domain.Account) (*Session, error) {
	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateSessionToken(ctx, account.ID, token); err != nil {
		return nil, err
	}
	account.SessionToken = token

	observability.TokensIssuedTotal.Inc()

	csrfToken, err := s.csrf.Generate()
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		CSRFToken: csrfToken,
	}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return domain.NewValidationError("Email is required!")
	}
	if !emailRegex.MatchString(email) || len(email) > 255 {
		return domain.NewValidationError("Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return domain.NewValidationError("Password is required!")
	}
	if len(password) < minPasswordLength {
		return domain.NewValidationError("Password must be at least 6 characters long")
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"accounts-api/internal/domain"
	"accounts-api/internal/observability"
)

// AccountRepository implements domain.AccountRepository for PostgreSQL.
// Free-form profile fields are stored in a JSONB column next to the fixed
// account columns, so the row behaves like the account document it replaces.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account into the database
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	defer observe("insert")()

	profile, err := marshalProfile(account.Profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, role, session_token, profile)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.SessionToken,
		profile,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if IsUniqueViolation(err, "accounts_email_key") {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	defer observe("select")()

	query := `
		SELECT id, email, password_hash, role, session_token, profile, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	defer observe("select")()

	query := `
		SELECT id, email, password_hash, role, session_token, profile, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// List retrieves all accounts ordered by creation time
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	defer observe("select")()

	query := `
		SELECT id, email, password_hash, role, session_token, profile, created_at, updated_at
		FROM accounts
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := r.scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	return accounts, nil
}

// Update persists the mutable fields of an account
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	defer observe("update")()

	profile, err := marshalProfile(account.Profile)
	if err != nil {
		return err
	}

	query := `
		UPDATE accounts
		SET email = $2, password_hash = $3, role = $4, profile = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Role,
		profile,
	).Scan(&account.UpdatedAt)

	if err == sql.ErrNoRows {
		return domain.ErrAccountNotFound
	}
	if err != nil {
		if IsUniqueViolation(err, "accounts_email_key") {
			return domain.ErrEmailExists
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// Delete removes an account by ID
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete")()

	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// UpdateSessionToken stores the most recently issued session token on the account record
func (r *AccountRepository) UpdateSessionToken(ctx context.Context, id, token string) error {
	defer observe("update")()

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET session_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return fmt.Errorf("failed to update session token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update session token: %w", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanAccount
type scanner interface {
	Scan(dest ...any) error
}

func (r *AccountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	account, err := r.scanAccountRow(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

func (r *AccountRepository) scanAccountRow(s scanner) (*domain.Account, error) {
	account := &domain.Account{}
	var profile []byte

	err := s.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.SessionToken,
		&profile,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &account.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
	}

	return account, nil
}

func marshalProfile(profile domain.Profile) ([]byte, error) {
	if profile == nil {
		return []byte(`{}`), nil
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return data, nil
}

// observe records query latency for the accounts table
func observe(operation string) func() {
	start := time.Now()
	return func() {
		observability.DBQueryDuration.WithLabelValues(operation, "accounts").
			Observe(time.Since(start).Seconds())
	}
}

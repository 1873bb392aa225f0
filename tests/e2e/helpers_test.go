//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"
)

// TestClient wraps http.Client with cookie handling for a single account session
type TestClient struct {
	*http.Client
	t     *testing.T
	email string
}

// NewTestClient creates a new test client with cookie jar
func NewTestClient(t *testing.T) *TestClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &TestClient{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		t: t,
	}
}

// SignUp creates a new account. Extra profile fields may be passed in profile.
func (tc *TestClient) SignUp(email, password string, profile map[string]any) (*MessageResponse, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	for k, v := range profile {
		body[k] = v
	}

	resp, err := tc.doJSON(http.MethodPost, "/signup", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("signup failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}

	tc.email = email
	return &result, nil
}

// SignIn signs in with email and password; the session cookie lands in the jar.
func (tc *TestClient) SignIn(email, password string) (*MessageResponse, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	resp, err := tc.doJSON(http.MethodPost, "/signin", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("signin failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode signin response: %w", err)
	}

	tc.email = email
	return &result, nil
}

// GetUser fetches the authenticated account
func (tc *TestClient) GetUser() (*AccountResponse, error) {
	resp, err := tc.Get(baseURL + "/user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get user failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result AccountResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	return &result, nil
}

// ListUsers fetches all accounts (requires the admin role)
func (tc *TestClient) ListUsers() ([]AccountResponse, error) {
	resp, err := tc.Get(baseURL + "/users")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list users failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result []AccountResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode users response: %w", err)
	}

	return result, nil
}

// UpdateUser applies changes to the authenticated account
func (tc *TestClient) UpdateUser(changes map[string]any) (*MessageResponse, error) {
	resp, err := tc.doJSON(http.MethodPut, "/update", changes)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("update failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode update response: %w", err)
	}

	return &result, nil
}

// DeleteUser removes the authenticated account
func (tc *TestClient) DeleteUser() (*MessageResponse, error) {
	resp, err := tc.doJSON(http.MethodDelete, "/delete", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode delete response: %w", err)
	}

	return &result, nil
}

// doJSON makes a request with a JSON body
func (tc *TestClient) doJSON(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	return tc.Do(req)
}

// Response types
type MessageResponse struct {
	Message string `json:"message"`
}

type AccountResponse struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Profile   map[string]any `json:"profile,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// Test helpers

// uniqueEmail generates a unique email for testing
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

// setupTestAccount signs up a fresh account and returns the signed-in client
func setupTestAccount(t *testing.T, prefix string) *TestClient {
	t.Helper()

	client := NewTestClient(t)
	email := uniqueEmail(prefix)

	_, err := client.SignUp(email, "password123", nil)
	if err != nil {
		t.Fatalf("failed to sign up account: %v", err)
	}

	return client
}

// promoteToAdmin flips the account's role directly in the database.
// Admin accounts are provisioned out-of-band; there is no API for it.
func promoteToAdmin(t *testing.T, email string) {
	t.Helper()

	result, err := testDB.Exec(`UPDATE accounts SET role = 'admin' WHERE email = $1`, email)
	if err != nil {
		t.Fatalf("failed to promote account to admin: %v", err)
	}
	if rows, _ := result.RowsAffected(); rows != 1 {
		t.Fatalf("expected to promote exactly 1 account, got %d", rows)
	}
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// assertEqual checks if two values are equal
func assertEqual[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

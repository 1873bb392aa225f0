package security

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
)

// CSRFManager handles CSRF token generation and double-submit validation.
// Tokens are cryptographically random, delivered in a non-httpOnly cookie and
// expected back in a request header. They are not persisted or bound to the
// session; validity is purely cookie-equals-header.
type CSRFManager struct{}

// NewCSRFManager creates a new CSRF token manager.
func NewCSRFManager() *CSRFManager {
	return &CSRFManager{}
}

// Generate creates a cryptographically secure random CSRF token.
// The token is 32 random bytes returned as a 64-character hex string.
func (m *CSRFManager) Generate() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}

// Validate reports whether the double-submitted values match. Fails closed:
// false when either value is absent. Comparison is constant-time.
func (m *CSRFManager) Validate(cookieValue, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return hmac.Equal([]byte(cookieValue), []byte(headerValue))
}

package middleware

import (
	"log/slog"
	"net/http"

	"accounts-api/internal/security"
)

const (
	// CSRFCookieName is the non-httpOnly cookie carrying the CSRF token.
	CSRFCookieName = "CSRF-TOKEN"
	// CSRFHeaderName is the header the client echoes the cookie value into.
	CSRFHeaderName = "x-csrf-token"
)

// CSRF validates CSRF tokens for state-changing requests using the
// double-submit cookie pattern: the token set in a non-httpOnly cookie must be
// echoed back in a request header. A cross-origin attacker cannot read the
// cookie, so it cannot produce a matching pair. Replay of an observed pair is
// not defended against; the token is not bound to the session.
//
// Validation Flow:
// 1. Skip for safe HTTP methods (GET, HEAD, OPTIONS)
// 2. Extract the CSRF cookie and the x-csrf-token header
// 3. Reject with 403 when the header is absent
// 4. Compare cookie and header in constant time; reject with 403 on mismatch
// 5. Log security events on validation failure
func CSRF(manager *security.CSRFManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Safe methods never mutate state
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get(CSRFHeaderName)
			if headerToken == "" {
				logCSRFFailure(r, "missing token")
				http.Error(w, `{"error":"CSRF token missing"}`, http.StatusForbidden)
				return
			}

			var cookieToken string
			if cookie, err := r.Cookie(CSRFCookieName); err == nil {
				cookieToken = cookie.Value
			}

			if !manager.Validate(cookieToken, headerToken) {
				logCSRFFailure(r, "invalid token")
				http.Error(w, `{"error":"Invalid CSRF token"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod returns true if the HTTP method is idempotent and cacheable.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// logCSRFFailure logs a security event when CSRF validation fails.
func logCSRFFailure(r *http.Request, reason string) {
	slog.Warn("CSRF validation failed",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.RequestURI),
		slog.String("remote_addr", r.RemoteAddr),
	)
}

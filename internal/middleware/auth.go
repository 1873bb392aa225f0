package middleware

import (
	"context"
	"net/http"

	"accounts-api/internal/domain"
	"accounts-api/internal/observability"
	"accounts-api/internal/security"
)

type contextKey string

const (
	AccountIDKey contextKey = "account_id"
	AccountKey   contextKey = "account"
)

// AuthCookieName is the session cookie carrying the signed token.
const AuthCookieName = "AuthToken"

// TokenVerifier validates a signed token and returns its subject ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RoutePolicy declares the authentication requirements for a single route.
// A route without a policy, or with RequiresAuth false, is forwarded untouched.
type RoutePolicy struct {
	Method       string
	Path         string
	RequiresAuth bool
	RequiredRole domain.Role
}

// PolicyTable maps method+path pairs to their route policies.
type PolicyTable struct {
	policies map[string]RoutePolicy
}

func NewPolicyTable(policies []RoutePolicy) *PolicyTable {
	table := &PolicyTable{policies: make(map[string]RoutePolicy, len(policies))}
	for _, p := range policies {
		table.policies[p.Method+" "+p.Path] = p
	}
	return table
}

// Lookup returns the policy for a method+path pair, if one is declared.
func (t *PolicyTable) Lookup(method, path string) (RoutePolicy, bool) {
	policy, ok := t.policies[method+" "+path]
	return policy, ok
}

// Auth guards requests according to the policy table. Protected requests must
// carry a valid session-token cookie whose subject resolves to an existing
// account; routes with a required role additionally check the account's role.
// The resolved account and its ID are attached to the request context.
//
// Decision order is fixed: policy lookup, cookie presence, token verification,
// identity resolution, role check. Role checks never run before identity
// resolution succeeds.
func Auth(verifier TokenVerifier, accounts domain.AccountRepository, policies *PolicyTable) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := policies.Lookup(r.Method, r.URL.Path)
			if !ok || !policy.RequiresAuth {
				observability.AuthDecisionsTotal.WithLabelValues("exempt").Inc()
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(AuthCookieName)
			if err != nil || cookie.Value == "" {
				observability.AuthDecisionsTotal.WithLabelValues("token_missing").Inc()
				http.Error(w, `{"error":"Unauthorized - Token missing. Please login or signup first."}`, http.StatusUnauthorized)
				return
			}

			subjectID, err := verifier.Verify(cookie.Value)
			if err != nil {
				observability.AuthDecisionsTotal.WithLabelValues("token_invalid").Inc()
				http.Error(w, `{"error":"Unauthorized - Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			account, err := accounts.GetByID(r.Context(), subjectID)
			if err != nil {
				// A token may outlive its account. Treat that as unauthenticated,
				// not as a server failure.
				if err == domain.ErrAccountNotFound {
					observability.AuthDecisionsTotal.WithLabelValues("identity_not_found").Inc()
					http.Error(w, `{"error":"Requested user not found"}`, http.StatusNotFound)
					return
				}
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, account.ID)
			ctx = context.WithValue(ctx, AccountKey, account)

			if policy.RequiredRole != "" && account.Role != policy.RequiredRole {
				observability.AuthDecisionsTotal.WithLabelValues("role_denied").Inc()
				http.Error(w, `{"error":"Forbidden - Admin access required."}`, http.StatusForbidden)
				return
			}

			observability.AuthDecisionsTotal.WithLabelValues("authorized").Inc()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAccountID(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(AccountIDKey).(string)
	return accountID, ok
}

func GetAccount(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*domain.Account)
	return account, ok
}

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, AccountIDKey, accountID)
}

func WithAccount(ctx context.Context, account *domain.Account) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

var _ TokenVerifier = (*security.TokenService)(nil)

package handler

import (
	"encoding/json"
	"net/http"

	"accounts-api/internal/domain"
	"accounts-api/internal/middleware"
	"accounts-api/internal/service"
)

const (
	signupCookieMaxAge = 3600
	signinCookieMaxAge = 86400
	csrfCookieMaxAge   = 3600
)

// AccountHandler handles the account endpoints
type AccountHandler struct {
	accountService *service.AccountService
	secureCookies  bool
}

// NewAccountHandler creates a new account handler. secureCookies should be
// true in production so cookies only travel over HTTPS.
func NewAccountHandler(accountService *service.AccountService, secureCookies bool) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		secureCookies:  secureCookies,
	}
}

// MessageResponse is the body of success responses that carry no record.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignUp handles account registration. Besides email and password the body
// may carry arbitrary profile fields, which are stored as-is.
func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	email, password, profile, err := decodeCredentials(r)
	if err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	_, session, err := h.accountService.SignUp(r.Context(), email, password, profile)
	if err != nil {
		if err == domain.ErrEmailExists {
			http.Error(w, `{"error":"Email is taken!"}`, http.StatusBadRequest)
			return
		}
		if verr, ok := domain.IsValidation(err); ok {
			http.Error(w, `{"error":"`+verr.Message+`"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	h.setSessionCookies(w, session, signupCookieMaxAge)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(MessageResponse{Message: "User created successfully"})
}

// SignIn handles account login
func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	email, password, _, err := decodeCredentials(r)
	if err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	_, session, err := h.accountService.SignIn(r.Context(), email, password)
	if err != nil {
		switch err {
		case domain.ErrEmailNotFound:
			http.Error(w, `{"error":"Email does not exist"}`, http.StatusNotFound)
		case domain.ErrWrongPassword:
			http.Error(w, `{"error":"Wrong password"}`, http.StatusBadRequest)
		default:
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		}
		return
	}

	h.setSessionCookies(w, session, signinCookieMaxAge)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessageResponse{Message: "User successfully signed in"})
}

// GetUser returns the authenticated account
func (h *AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Requested user ID is missing"}`, http.StatusBadRequest)
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), id)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			http.Error(w, `{"error":"Failed to fetch data with id: `+id+`"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// ListUsers returns all accounts. The admin requirement is enforced by the
// authorization gate before the request reaches this handler.
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context())
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	if len(accounts) == 0 {
		http.Error(w, `{"error":"No users found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

// UpdateUser applies changes to the authenticated account
func (h *AccountHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Requested user ID is missing"}`, http.StatusBadRequest)
		return
	}

	email, password, profile, err := decodeCredentials(r)
	if err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	_, err = h.accountService.UpdateAccount(r.Context(), id, email, password, profile)
	if err != nil {
		switch {
		case err == domain.ErrAccountNotFound:
			http.Error(w, `{"error":"Failed to fetch data with id: `+id+`"}`, http.StatusNotFound)
		case err == domain.ErrEmailExists:
			http.Error(w, `{"error":"Email is taken!"}`, http.StatusBadRequest)
		default:
			if verr, ok := domain.IsValidation(err); ok {
				http.Error(w, `{"error":"`+verr.Message+`"}`, http.StatusBadRequest)
				return
			}
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessageResponse{Message: "User updated successfully"})
}

// DeleteUser removes the authenticated account
func (h *AccountHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Requested user ID is missing"}`, http.StatusBadRequest)
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), id); err != nil {
		if err == domain.ErrAccountNotFound {
			http.Error(w, `{"error":"Failed to delete user with id: `+id+`"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	clearCookie(w, middleware.AuthCookieName, true, h.secureCookies)
	clearCookie(w, middleware.CSRFCookieName, false, h.secureCookies)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessageResponse{Message: "User successfully deleted"})
}

// setSessionCookies writes the auth and CSRF cookies for a fresh session.
// The CSRF cookie is readable by scripts so the client can mirror it into
// the x-csrf-token header.
func (h *AccountHandler) setSessionCookies(w http.ResponseWriter, session *service.Session, authMaxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   authMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CSRFCookieName,
		Value:    session.CSRFToken,
		Path:     "/",
		MaxAge:   csrfCookieMaxAge,
		HttpOnly: false,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearCookie(w http.ResponseWriter, name string, httpOnly, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// decodeCredentials splits the request body into the credential fields and
// everything else, which becomes the profile document.
func decodeCredentials(r *http.Request) (email, password string, profile domain.Profile, err error) {
	var body map[string]any
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", "", nil, err
	}

	if v, ok := body["email"].(string); ok {
		email = v
	}
	if v, ok := body["password"].(string); ok {
		password = v
	}
	delete(body, "email")
	delete(body, "password")

	return email, password, domain.Profile(body), nil
}

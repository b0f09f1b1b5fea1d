package httpapi

import (
	"errors"
	"net/http"
	"time"

	"finledger.org/internal/audit"
	"finledger.org/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// loginResponse pairs the fresh token set with the profile of the user
// who just signed in, so clients need no follow-up call to /v1/auth/me.
type loginResponse struct {
	tokenResponse
	UserProfile userResponse `json:"user_profile"`
}

// userResponse is the public projection of a credential record.
type userResponse struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name,omitempty"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func viewUser(u *auth.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.Role,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			writeViolations(w, verr.Violations)
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already registered")
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "Username already taken")
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), audit.EventRegister, map[string]any{
		"user_id": u.ID, "username": u.Username,
	})
	writeSuccess(w, http.StatusCreated, "User registered successfully", viewUser(u))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, u, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			_ = audit.LogEvent(r.Context(), audit.EventLoginFailed, map[string]any{"remote": clientIP(r)})
			writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		case errors.Is(err, auth.ErrAccountLocked):
			_ = audit.LogEvent(r.Context(), audit.EventLockout, map[string]any{"remote": clientIP(r)})
			writeError(w, http.StatusUnauthorized, "Account is temporarily locked")
		case errors.Is(err, auth.ErrAccountDeactivated):
			writeError(w, http.StatusUnauthorized, "Account is deactivated")
		default:
			writeError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), audit.EventLoginOK, map[string]any{"user_id": u.ID})
	writeSuccess(w, http.StatusOK, "Login successful", loginResponse{
		tokenResponse: tokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "bearer",
			ExpiresIn:    int64(time.Until(pair.AccessExpiresAt).Seconds()),
		},
		UserProfile: viewUser(u),
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, expiresAt, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		} else {
			writeError(w, http.StatusInternalServerError, "token refresh failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), audit.EventTokenRefresh, nil)
	writeSuccess(w, http.StatusOK, "Token refreshed", tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if err := a.auth.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	_ = audit.LogEvent(r.Context(), audit.EventLogout, nil)
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeSuccess(w, http.StatusOK, "Current user", viewUser(u))
}

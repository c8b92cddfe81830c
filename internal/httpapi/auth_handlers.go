package httpapi

import (
	"net/http"
	"time"

	"loandesk.org/internal/audit"
	"loandesk.org/internal/auth"
	"loandesk.org/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        *auth.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), req)
	if err != nil {
		obs.ObserveAuth("register", "error")
		handleAuthError(w, r, err)
		return
	}
	obs.ObserveAuth("register", "ok")
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"username": user.Username,
		"role":     user.Role,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}
	token, expiresAt, user, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		obs.ObserveAuth("login", "error")
		handleAuthError(w, r, err)
		return
	}
	obs.ObserveAuth("login", "ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username": user.Username,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	})
}

// handleLogout is on the public path list and extracts the bearer
// credential itself, so revocation ordering is fully under the
// service's control.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, reasonMalformed, err.Error())
		return
	}
	subject, err := a.auth.Logout(r.Context(), token)
	if err != nil {
		obs.ObserveAuth("logout", "error")
		handleAuthError(w, r, err)
		return
	}
	obs.ObserveAuth("logout", "ok")
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"username": subject,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"loandesk.org/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerScheme = "Bearer "
)

// Paths that skip bearer authentication. Logout is listed because it
// must accept tokens a plain Authenticate would reject (an inactive
// user still gets to invalidate their token); the handler validates
// the credential itself.
var publicPaths = []string{
	"/register",
	"/login",
	"/logout",
	"/healthz",
	"/readyz",
	"/metrics",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, reasonMalformed, err.Error())
			return
		}

		user, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}

		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mustUser returns the authenticated identity or writes a 401.
func mustUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, reasonMalformed, "authentication required")
		return nil, false
	}
	return user, true
}

// mustAdmin returns the authenticated admin or writes a 403.
func mustAdmin(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := mustUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin() {
		writeError(w, r, http.StatusForbidden, reasonForbidden, "admin access required")
		return nil, false
	}
	return user, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerScheme)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

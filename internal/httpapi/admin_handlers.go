package httpapi

import (
	"net/http"
	"strings"

	"loandesk.org/internal/audit"
	"loandesk.org/internal/auth"
)

func (a *API) handleAdminUsersCollection(w http.ResponseWriter, r *http.Request) {
	admin, ok := mustAdmin(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		users, err := a.auth.ListUsers(r.Context(), admin, r.URL.Query().Get("role"))
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": users, "count": len(users)})
	case http.MethodPost:
		var req auth.RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
			return
		}
		user, err := a.auth.CreateUser(r.Context(), admin, req)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.user.create", map[string]any{
			"target": user.Username,
			"role":   user.Role,
		})
		w.Header().Set("Location", "/admin/users/"+user.ID)
		writeJSON(w, http.StatusCreated, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAdminUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "resource not found")
		return
	}
	admin, ok := mustAdmin(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		user, err := a.auth.GetUser(r.Context(), admin, id)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var upd auth.UserUpdate
		if err := decodeJSON(w, r, &upd); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
			return
		}
		user, err := a.auth.UpdateUser(r.Context(), admin, id, upd)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.user.update", map[string]any{
			"target": user.Username,
		})
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := a.auth.DeleteUser(r.Context(), admin, id); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.user.delete", map[string]any{
			"target_id": id,
		})
		writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	admin, ok := mustAdmin(w, r)
	if !ok {
		return
	}
	stats, err := a.auth.UserStats(r.Context(), admin)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

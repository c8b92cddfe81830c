package httpapi

import (
	"net/http"
	"strings"
)

func (a *API) handleNotificationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listNotifications(w, r)
	case http.MethodDelete:
		a.clearNotifications(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleNotificationResource serves PUT /notifications/{id}/mark-as-read.
func (a *API) handleNotificationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/notifications/")
	id := strings.TrimSuffix(path, "/mark-as-read")
	if id == path || id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	if err := a.notifications.MarkRead(r.Context(), user.Username, id); err != nil {
		handleNotifyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "notification marked as read"})
}

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	items, unread, err := a.notifications.List(r.Context(), user.Username)
	if err != nil {
		handleNotifyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":        items,
		"unread_count": unread,
	})
}

func (a *API) clearNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	n, err := a.notifications.Clear(r.Context(), user.Username)
	if err != nil {
		handleNotifyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

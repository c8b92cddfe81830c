package httpapi

import (
	"net/http"
	"strings"

	"loandesk.org/internal/results"
)

type saveResultsRequest struct {
	Name string        `json:"name"`
	Rows []results.Row `json:"rows"`
}

func (a *API) handleSaveResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	var req saveResultsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}
	session, err := a.results.Save(r.Context(), user, req.Name, req.Rows)
	if err != nil {
		handleResultsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) handleLoadResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	sessions, err := a.results.Load(r.Context(), user)
	if err != nil {
		handleResultsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (a *API) handleResultResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	if err := a.results.Delete(r.Context(), user, id); err != nil {
		handleResultsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "session deleted"})
}

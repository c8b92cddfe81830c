package httpapi

import (
	"net/http"
	"strings"

	"loandesk.org/internal/audit"
	"loandesk.org/internal/contract"
)

type reassignOwnerRequest struct {
	Username string `json:"username"`
}

func (a *API) handleLoansCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listLoans(w, r)
	case http.MethodPost:
		a.createLoan(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleLoanResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/loans/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "contract not found")
		return
	}

	if strings.HasSuffix(path, "/owner") {
		number := strings.TrimSuffix(strings.TrimSuffix(path, "/owner"), "/")
		if number == "" {
			writeError(w, r, http.StatusNotFound, reasonNotFound, "contract not found")
			return
		}
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.reassignLoanOwner(w, r, number)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getLoan(w, r, path)
	case http.MethodPut:
		a.updateLoan(w, r, path)
	case http.MethodDelete:
		a.deleteLoan(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	items, err := a.contracts.List(r.Context(), user)
	if err != nil {
		handleContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (a *API) createLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	var c contract.Contract
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}
	created, err := a.contracts.Create(r.Context(), user, &c)
	if err != nil {
		handleContractError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "contract.create", map[string]any{
		"contract": created.Number,
	})
	w.Header().Set("Location", "/loans/"+created.Number)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) getLoan(w http.ResponseWriter, r *http.Request, number string) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	c, err := a.contracts.Get(r.Context(), user, number)
	if err != nil {
		handleContractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) updateLoan(w http.ResponseWriter, r *http.Request, number string) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	var upd contract.Update
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}
	c, err := a.contracts.Edit(r.Context(), user, number, upd)
	if err != nil {
		handleContractError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "contract.update", map[string]any{
		"contract": c.Number,
	})
	writeJSON(w, http.StatusOK, c)
}

func (a *API) deleteLoan(w http.ResponseWriter, r *http.Request, number string) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	if err := a.contracts.Delete(r.Context(), user, number); err != nil {
		handleContractError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "contract.delete", map[string]any{
		"contract": number,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "contract deleted"})
}

func (a *API) reassignLoanOwner(w http.ResponseWriter, r *http.Request, number string) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	var req reassignOwnerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}
	c, err := a.contracts.ReassignOwner(r.Context(), user, number, req.Username)
	if err != nil {
		handleContractError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "contract.reassign_owner", map[string]any{
		"contract":  c.Number,
		"new_owner": c.Owner,
	})
	writeJSON(w, http.StatusOK, c)
}

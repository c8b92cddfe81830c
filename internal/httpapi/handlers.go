package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"loandesk.org/internal/auth"
	"loandesk.org/internal/contract"
	"loandesk.org/internal/notify"
	"loandesk.org/internal/results"
	"loandesk.org/internal/scorer"
)

// Stable machine-readable reason codes used in error payloads.
const (
	reasonMalformed          = "malformed_credential"
	reasonInvalidSignature   = "invalid_signature"
	reasonTokenExpired       = "token_expired"
	reasonTokenRevoked       = "token_revoked"
	reasonUnknownSubject     = "unknown_subject"
	reasonInactiveAccount    = "inactive_account"
	reasonInvalidCredentials = "invalid_credentials"
	reasonForbidden          = "forbidden"
	reasonNotFound           = "not_found"
	reasonAlreadyExists      = "already_exists"
	reasonInvalidInput       = "invalid_input"
	reasonInternal           = "internal_error"
)

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"service":      "loandesk-api",
		"version":      a.version,
		"model_loaded": a.models != nil && a.models.Loaded(),
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, reason, msg string) {
	payload := map[string]any{
		"error":  msg,
		"reason": reason,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps auth sentinel errors to HTTP statuses.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMalformedCredential):
		writeError(w, r, http.StatusUnauthorized, reasonMalformed, "malformed credential")
	case errors.Is(err, auth.ErrRevoked), errors.Is(err, auth.ErrAlreadyRevoked):
		writeError(w, r, http.StatusUnauthorized, reasonTokenRevoked, "token has been revoked")
	case errors.Is(err, auth.ErrInvalidSignature):
		writeError(w, r, http.StatusUnauthorized, reasonInvalidSignature, "invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, reasonTokenExpired, "token expired")
	case errors.Is(err, auth.ErrUnknownSubject):
		writeError(w, r, http.StatusUnauthorized, reasonUnknownSubject, "unknown subject")
	case errors.Is(err, auth.ErrInactiveAccount):
		writeError(w, r, http.StatusForbidden, reasonInactiveAccount, "account is deactivated")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, reasonInvalidCredentials, "invalid username or password")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, reasonForbidden, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "not found")
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, reasonAlreadyExists, err.Error())
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "internal error")
	}
}

func handleContractError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contract.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "contract not found")
	case errors.Is(err, contract.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, reasonAlreadyExists, err.Error())
	case errors.Is(err, contract.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
	case errors.Is(err, contract.ErrForbidden):
		writeError(w, r, http.StatusForbidden, reasonForbidden, "forbidden")
	default:
		handleAuthError(w, r, err)
	}
}

func handleNotifyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, notify.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "notification not found")
		return
	}
	writeError(w, r, http.StatusInternalServerError, reasonInternal, "internal error")
}

func handleResultsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, results.ErrNotFound):
		writeError(w, r, http.StatusNotFound, reasonNotFound, "session not found")
	case errors.Is(err, results.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
	default:
		handleAuthError(w, r, err)
	}
}

func handleScorerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scorer.ErrEmptyFeatures):
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, "feature vector is required")
	case errors.Is(err, scorer.ErrCreditScoreRange):
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
	case errors.Is(err, scorer.ErrUnknownModel):
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
	default:
		// model internals never leak to clients
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "prediction failed")
	}
}

package httpapi

import (
	"net/http"
	"time"

	"loandesk.org/internal/obs"
	"loandesk.org/internal/scorer"
)

type predictRequest struct {
	Features []float64 `json:"features"`
	Model    string    `json:"model,omitempty"`
}

type evaluateRequest struct {
	Records []scorer.LabeledRecord `json:"records"`
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := mustUser(w, r); !ok {
		return
	}
	var req predictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}

	start := time.Now()
	model, err := a.models.Model(req.Model)
	if err != nil {
		obs.IncError("predict", "model_load")
		obs.ObservePrediction("predict", "error", time.Since(start).Seconds())
		handleScorerError(w, r, err)
		return
	}
	pred, err := model.Score(req.Features)
	if err != nil {
		obs.IncError("predict", "score")
		obs.ObservePrediction("predict", "error", time.Since(start).Seconds())
		handleScorerError(w, r, err)
		return
	}
	obs.ObservePrediction("predict", "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, pred)
}

func (a *API) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := mustUser(w, r); !ok {
		return
	}
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonInvalidInput, err.Error())
		return
	}

	start := time.Now()
	metrics, err := a.models.Evaluate(req.Records)
	if err != nil {
		obs.IncError("evaluate", "score")
		obs.ObservePrediction("evaluate", "error", time.Since(start).Seconds())
		handleScorerError(w, r, err)
		return
	}
	obs.ObservePrediction("evaluate", "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, map[string]any{"models": metrics})
}

func (a *API) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := mustUser(w, r); !ok {
		return
	}
	names, err := a.models.Names()
	if err != nil {
		handleScorerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": names, "default": names[0]})
}

func (a *API) handleReloadModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := mustAdmin(w, r); !ok {
		return
	}
	if err := a.models.Reload(); err != nil {
		obs.IncError("reload_models", "model_load")
		writeError(w, r, http.StatusInternalServerError, reasonInternal, "model reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "models reloaded"})
}

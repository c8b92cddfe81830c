// Package httpapi exposes the REST surface of the service.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"loandesk.org/internal/auth"
	"loandesk.org/internal/contract"
	"loandesk.org/internal/notify"
	"loandesk.org/internal/obs"
	"loandesk.org/internal/results"
	"loandesk.org/internal/scorer"
)

// ReadyProbe checks dependencies for the readiness endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux           *http.ServeMux
	auth          *auth.Service
	contracts     *contract.Service
	notifications *notify.Service
	results       *results.Service
	models        *scorer.Cache
	readyProbe    ReadyProbe
	version       string
}

// Config carries the services the API exposes.
type Config struct {
	Auth          *auth.Service
	Contracts     *contract.Service
	Notifications *notify.Service
	Results       *results.Service
	Models        *scorer.Cache
	ReadyProbe    ReadyProbe
	Version       string
}

// New wires up all routes.
func New(cfg Config) *API {
	a := &API{
		mux:           http.NewServeMux(),
		auth:          cfg.Auth,
		contracts:     cfg.Contracts,
		notifications: cfg.Notifications,
		results:       cfg.Results,
		models:        cfg.Models,
		readyProbe:    cfg.ReadyProbe,
		version:       cfg.Version,
	}

	// session lifecycle
	a.mux.HandleFunc("/register", a.handleRegister)
	a.mux.HandleFunc("/login", a.handleLogin)
	a.mux.HandleFunc("/logout", a.handleLogout)
	a.mux.HandleFunc("/users/me", a.handleMe)

	// loan contracts
	a.mux.HandleFunc("/loans", a.handleLoansCollection)
	a.mux.HandleFunc("/loans/", a.handleLoanResource)

	// notifications
	a.mux.HandleFunc("/notifications", a.handleNotificationsCollection)
	a.mux.HandleFunc("/notifications/", a.handleNotificationResource)

	// scoring
	a.mux.HandleFunc("/predict", a.handlePredict)
	a.mux.HandleFunc("/evaluate", a.handleEvaluate)
	a.mux.HandleFunc("/models", a.handleModels)

	// saved results
	a.mux.HandleFunc("/save-results", a.handleSaveResults)
	a.mux.HandleFunc("/load-results", a.handleLoadResults)
	a.mux.HandleFunc("/results/", a.handleResultResource)

	// admin
	a.mux.HandleFunc("/admin/users", a.handleAdminUsersCollection)
	a.mux.HandleFunc("/admin/users/", a.handleAdminUserResource)
	a.mux.HandleFunc("/admin/stats", a.handleAdminStats)
	a.mux.HandleFunc("/admin/reload-models", a.handleReloadModels)

	// health/ready/metrics
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler chain.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

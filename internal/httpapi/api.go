// Package httpapi is the HTTP boundary: routing, authentication,
// per-class rate limiting, and translation between transport and the
// domain services.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"finledger.org/internal/audit"
	"finledger.org/internal/auth"
	"finledger.org/internal/finance"
	"finledger.org/internal/obs"
	"finledger.org/internal/ratelimit"
)

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth and ledger services.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	ledger     *finance.Service
	limiter    *ratelimit.Limiter
	readyProbe ReadyProbe
	version    string
}

// New wires the routes. The limiter may not be nil; pass
// ratelimit.NewLimiter(nil) for a process-local one.
func New(authSvc *auth.Service, ledger *finance.Service, limiter *ratelimit.Limiter, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		ledger:     ledger,
		limiter:    limiter,
		readyProbe: rp,
		version:    version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication
	a.mux.HandleFunc("/v1/auth/register", a.limited(ratelimit.ClassRegister, a.handleRegister))
	a.mux.HandleFunc("/v1/auth/login", a.limited(ratelimit.ClassLogin, a.handleLogin))
	a.mux.HandleFunc("/v1/auth/refresh", a.limited(ratelimit.ClassAPI, a.handleRefresh))
	a.mux.HandleFunc("/v1/auth/logout", a.limited(ratelimit.ClassAPI, a.handleLogout))
	a.mux.HandleFunc("/v1/auth/me", a.limited(ratelimit.ClassAPI, a.handleMe))

	// ledger
	a.mux.HandleFunc("/v1/categories", a.limited(ratelimit.ClassAPI, a.handleCategoriesCollection))
	a.mux.HandleFunc("/v1/categories/", a.limited(ratelimit.ClassAPI, a.handleCategoryResource))
	a.mux.HandleFunc("/v1/transactions", a.limited(ratelimit.ClassAPI, a.handleTransactionsCollection))
	a.mux.HandleFunc("/v1/transactions/", a.limited(ratelimit.ClassAPI, a.handleTransactionResource))
	a.mux.HandleFunc("/v1/reports/summary", a.limited(ratelimit.ClassAPI, a.handleSummary))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	return obs.Instrument(Logging(RequestID(SecurityHeaders(CORS(h)))))
}

// limited gates a handler behind the sliding-window budget for an
// operation class. Denials carry the standard rate-limit headers and are
// never recorded against the budget.
func (a *API) limited(class string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next(w, r)
			return
		}
		d, err := a.limiter.Check(r.Context(), class, clientIP(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "rate limit check failed")
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			obs.ObserveRateLimited(class)
			retry := int(d.RetryAfter.Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			_ = audit.LogEvent(r.Context(), audit.EventRateLimited, map[string]any{
				"class":       class,
				"retry_after": retry,
			})
			writeError(w, http.StatusTooManyRequests,
				"Rate limit exceeded. Try again in "+strconv.Itoa(retry)+" seconds")
			return
		}
		next(w, r)
	}
}

// Package http serves the JSON API: dashboard and analytics reads over
// the in-memory snapshot, entry writes through the entry service, and
// CSV import/export.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"financy/internal/auth"
	"financy/internal/budget"
	applog "financy/internal/log"
	"financy/internal/services"
	"financy/internal/store"
)

type Server struct {
	http.Server

	store    *store.Store
	entries  *services.EntryService
	budgets  *budget.Registry
	identity auth.Provider

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	httpLog      *applog.StructuredLogger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, st *store.Store, entries *services.EntryService, budgets *budget.Registry, identity auth.Provider, ratePerMinute int) *Server {
	mux := http.NewServeMux()
	httpLogger := applog.Default().WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(httpLogger)(mux),
		},
		store:       st,
		entries:     entries,
		budgets:     budgets,
		identity:    identity,
		rateLimiter: newRateLimiter(ratePerMinute),
		metrics:     &securityMetrics{},
		httpLog:     applog.NewStructuredLogger(httpLogger),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.withSecurity(s.handleDashboard))
	mux.HandleFunc("GET /api/analytics/categories", s.withSecurity(s.handleCategoryAnalytics))
	mux.HandleFunc("GET /api/analytics/monthly", s.withSecurity(s.handleMonthlyAnalytics))

	mux.HandleFunc("GET /api/entries", s.withSecurity(s.handleListEntries))
	mux.HandleFunc("POST /api/entries", s.withSecurity(s.handleCreateEntry))
	mux.HandleFunc("DELETE /api/entries/{id}", s.withSecurity(s.handleDeleteEntry))

	mux.HandleFunc("GET /api/budgets", s.withSecurity(s.handleListBudgets))
	mux.HandleFunc("PUT /api/budgets", s.withSecurity(s.handleSetBudget))
	mux.HandleFunc("DELETE /api/budgets/{category}", s.withSecurity(s.handleRemoveBudget))

	mux.HandleFunc("POST /api/import/preview", s.withSecurity(s.handleImportPreview))
	mux.HandleFunc("POST /api/import", s.withSecurity(s.handleImportCommit))
	mux.HandleFunc("GET /api/export", s.withSecurity(s.handleExport))

	return s
}

// withSecurity adds security headers, rate limiting on mutating
// methods, and request logging.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		ctx := r.Context()

		s.httpLog.LogHTTPStart(ctx, r, requestID, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, requestID, rw.statusCode,
			time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// owner resolves the request identity, answering 401 itself on
// failure.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, err := s.identity.Resolve(r)
	if err != nil {
		slog.WarnContext(r.Context(), "Identity resolution failed",
			"error", err, "url", r.URL.Path)
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return auth.Identity{}, false
	}
	return id, true
}

// snapshot returns the owner's current entry set, loading it from
// persistence the first time the owner is seen.
func (s *Server) snapshot(ctx context.Context, ownerID string) (store.Update, error) {
	upd := s.store.Current(ownerID)
	if upd.Version > 0 {
		return upd, nil
	}
	return s.store.Refresh(ctx, ownerID)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tablebook/tablebook/internal/metrics"
	"github.com/tablebook/tablebook/internal/observability/logger"
	"github.com/tablebook/tablebook/internal/security"
)

type tokenCtxKey struct{}

// tokenFrom returns the tenant security token the auth middleware resolved,
// if any.
func tokenFrom(ctx context.Context) (*security.TenantToken, bool) {
	t, ok := ctx.Value(tokenCtxKey{}).(*security.TenantToken)
	return t, ok
}

// requestLogger tags every request with an id and a scoped logger, and logs
// the outcome with latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()

		l := logger.With(
			logger.RequestID(reqID),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)
		w.Header().Set("X-Request-Id", reqID)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logger.ToContext(r.Context(), l)))

		l.Info("request",
			logger.Status(ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}

// measure records request counters and latency per chi route pattern.
func measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// authenticate turns a bearer access token back into a tenant security token.
// The tenant is reloaded so the token always carries the current tenant
// record, not a snapshot baked into the JWT.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthorized", Message: "missing bearer token"})
			return
		}
		claims, err := s.issuer.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthorized", Message: "invalid token"})
			return
		}
		tenant, ok, err := s.tenants.FindByCode(r.Context(), claims.TenantID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthorized", Message: "unknown tenant"})
			return
		}
		token := security.NewTenantToken(claims.Subject, *tenant, claims.Roles)
		ctx := context.WithValue(r.Context(), tokenCtxKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSystemTenant gates system-only surfaces such as tenant management.
func requireSystemTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := tokenFrom(r.Context())
		if !ok || !token.IsSystemTenant() {
			writeJSON(w, http.StatusForbidden, errorResponse{Code: "forbidden", Message: "system tenant required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

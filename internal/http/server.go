// Package http is the thin shell over the core: routing, request decoding,
// and the mapping of the repository error taxonomy to transport statuses. No
// business rules live here.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablebook/tablebook/internal/dao"
	"github.com/tablebook/tablebook/internal/rowstore"
	"github.com/tablebook/tablebook/internal/security/accesstoken"
	"github.com/tablebook/tablebook/internal/security/authn"
)

// Server wires the repositories, resolver and token issuer into a router.
type Server struct {
	store       rowstore.Store
	tenants     *dao.Tenants
	users       *dao.Users
	restaurants *dao.Restaurants
	resolver    *authn.Resolver
	issuer      *accesstoken.Issuer
}

// Deps are the collaborators the server exposes.
type Deps struct {
	Store       rowstore.Store
	Tenants     *dao.Tenants
	Users       *dao.Users
	Restaurants *dao.Restaurants
	Resolver    *authn.Resolver
	Issuer      *accesstoken.Issuer
}

// NewServer builds the HTTP shell.
func NewServer(deps Deps) *Server {
	return &Server{
		store:       deps.Store,
		tenants:     deps.Tenants,
		users:       deps.Users,
		restaurants: deps.Restaurants,
		resolver:    deps.Resolver,
		issuer:      deps.Issuer,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger, measure)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/v1/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/v1/tenants", func(r chi.Router) {
			r.Use(requireSystemTenant)
			r.Get("/", s.handleListTenants)
			r.Post("/", s.handleSaveTenant)
			r.Get("/{id}", s.handleGetTenant)
			r.Put("/{id}", s.handleUpdateTenant)
			r.Delete("/{id}", s.handleDeleteTenant)
		})

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleSaveUser)
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})

		r.Route("/v1/restaurants", func(r chi.Router) {
			r.Get("/", s.handleListRestaurants)
			r.Post("/", s.handleSaveRestaurant)
			r.Get("/{id}", s.handleGetRestaurant)
			r.Put("/{id}", s.handleUpdateRestaurant)
			r.Delete("/{id}", s.handleDeleteRestaurant)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

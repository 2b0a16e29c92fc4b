package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tablebook/tablebook/internal/domain"
)

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	out, err := s.tenants.FindAll(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	out, err := s.tenants.FindExistingByID(r.Context(), token, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveTenant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	var entity domain.Tenant
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}
	if err := s.tenants.Save(r.Context(), token, &entity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	var entity domain.Tenant
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}
	entity.TenantID = chi.URLParam(r, "id")
	if err := s.tenants.Update(r.Context(), token, &entity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	if err := s.tenants.Delete(r.Context(), token, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tablebook/tablebook/internal/domain"
)

func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	out, err := s.restaurants.FindAll(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	out, err := s.restaurants.FindExistingByID(r.Context(), token, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveRestaurant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	var entity domain.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}
	if entity.TenantID == "" {
		entity.SetTenantID(token.TenantID())
	}
	if err := s.restaurants.Save(r.Context(), token, &entity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (s *Server) handleUpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	var entity domain.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}
	entity.ID = chi.URLParam(r, "id")
	if entity.TenantID == "" {
		entity.SetTenantID(token.TenantID())
	}
	if err := s.restaurants.Update(r.Context(), token, &entity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (s *Server) handleDeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	if err := s.restaurants.Delete(r.Context(), token, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

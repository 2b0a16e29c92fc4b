package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tablebook/tablebook/internal/domain"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	out, err := s.users.FindAll(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	out, err := s.users.FindExistingByID(r.Context(), token, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveUser(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	var entity domain.TenantUser
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}
	// Input validation the thin shell owes the core: an omitted tenant means
	// the caller's own.
	if entity.TenantID == "" {
		entity.SetTenantID(token.TenantID())
	}
	if err := s.users.Save(r.Context(), token, &entity); err != nil {
		writeError(w, r, err)
		return
	}
	entity.Password = domain.MaskedPassword
	writeJSON(w, http.StatusCreated, entity)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	var entity domain.TenantUser
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}
	entity.UserID = chi.URLParam(r, "id")
	if entity.TenantID == "" {
		entity.SetTenantID(token.TenantID())
	}
	if err := s.users.Update(r.Context(), token, &entity); err != nil {
		writeError(w, r, err)
		return
	}
	entity.Password = domain.MaskedPassword
	writeJSON(w, http.StatusOK, entity)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFrom(r.Context())
	if err := s.users.Delete(r.Context(), token, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
